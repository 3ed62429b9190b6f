// Package export writes the palette record view as CSV or JSON and reads
// CSV exports back.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/bbernstein/lacylights-palette/internal/palette"
)

// FormatVersion is written into JSON exports.
const FormatVersion = "1.0"

// ErrInvalidCSV is returned by ReadCSV for input that is not a palette export.
var ErrInvalidCSV = errors.New("invalid palette csv")

// Header is the CSV column order.
var Header = []string{
	"Index", "Name",
	"R DMX", "G DMX", "B DMX", "W DMX", "A DMX",
	"sR", "sG", "sB", "Hex",
	"Brightness", "Brightness Level", "Brightness Name",
	"Color Group", "Category", "Temperature", "Favorite",
}

// Row is one exported record.
type Row struct {
	Index           int                    `json:"index"`
	Name            string                 `json:"name"`
	Channels        palette.ChannelTuple   `json:"channels"`
	Color           palette.PerceivedColor `json:"color"`
	Hex             string                 `json:"hex"`
	Brightness      float64                `json:"brightness"`
	BrightnessLevel int                    `json:"brightnessLevel"`
	BrightnessName  string                 `json:"brightnessName"`
	HueGroup        palette.HueGroup       `json:"colorGroup"`
	Category        palette.Category       `json:"category"`
	Temperature     palette.Temperature    `json:"temperature"`
	Favorite        bool                   `json:"favorite"`
}

// NewRow flattens a record and its favorite flag.
func NewRow(r palette.Record, favorite bool) Row {
	c := r.Classification
	return Row{
		Index:           r.Index,
		Name:            r.Name,
		Channels:        r.Channels,
		Color:           r.Color,
		Hex:             r.Color.Hex(),
		Brightness:      c.Luminance,
		BrightnessLevel: c.BrightnessLevel,
		BrightnessName:  r.BrightnessName,
		HueGroup:        c.HueGroup,
		Category:        c.Category,
		Temperature:     c.Temperature,
		Favorite:        favorite,
	}
}

// ExportedPalette is the JSON export document.
type ExportedPalette struct {
	Version  string          `json:"version"`
	Metadata *ExportMetadata `json:"metadata,omitempty"`
	Records  []Row           `json:"records"`
}

// ExportMetadata describes how the records were generated.
type ExportMetadata struct {
	ExportedAt string  `json:"exportedAt"`
	Signature  string  `json:"signature"`
	Steps      []int   `json:"steps"`
	WhiteScale float64 `json:"whiteScale"`
	AmberScale float64 `json:"amberScale"`
	Total      int     `json:"total"`
}

// Service exports records of one store.
type Service struct {
	store     *palette.Store
	favorites palette.FavoriteSet
}

// NewService creates a new export service. favorites may be nil.
func NewService(store *palette.Store, favorites palette.FavoriteSet) *Service {
	return &Service{store: store, favorites: favorites}
}

// Rows runs spec against the store and flattens the result.
func (s *Service) Rows(spec palette.FilterSpec) ([]Row, error) {
	favs := s.favorites
	seq, err := s.store.Query(spec, favs)
	if err != nil {
		return nil, err
	}
	rows := []Row{}
	for r := range seq {
		rows = append(rows, NewRow(r, favs != nil && favs.IsFavorite(r.Index)))
	}
	return rows, nil
}

// ExportPalette builds the JSON document for the records matching spec.
func (s *Service) ExportPalette(spec palette.FilterSpec) (*ExportedPalette, error) {
	rows, err := s.Rows(spec)
	if err != nil {
		return nil, err
	}
	mixer := s.store.Mixer()
	return &ExportedPalette{
		Version: FormatVersion,
		Metadata: &ExportMetadata{
			ExportedAt: time.Now().UTC().Format(time.RFC3339),
			Signature:  s.store.Signature(),
			Steps:      s.store.Steps().Values(),
			WhiteScale: mixer.WhiteScale,
			AmberScale: mixer.AmberScale,
			Total:      s.store.Len(),
		},
		Records: rows,
	}, nil
}

// WriteCSV writes spec's matches to w.
func (s *Service) WriteCSV(w io.Writer, spec palette.FilterSpec) (int, error) {
	rows, err := s.Rows(spec)
	if err != nil {
		return 0, err
	}
	return len(rows), WriteCSV(w, rows)
}

// ToJSON converts the export to an indented JSON string.
func (e *ExportedPalette) ToJSON() (string, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseExportedPalette parses a JSON export.
func ParseExportedPalette(jsonContent string) (*ExportedPalette, error) {
	var exported ExportedPalette
	if err := json.Unmarshal([]byte(jsonContent), &exported); err != nil {
		return nil, err
	}
	return &exported, nil
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r Row) record() []string {
	itoa := strconv.Itoa
	return []string{
		itoa(r.Index), r.Name,
		itoa(r.Channels.R()), itoa(r.Channels.G()), itoa(r.Channels.B()), itoa(r.Channels.W()), itoa(r.Channels.A()),
		itoa(int(r.Color.R)), itoa(int(r.Color.G)), itoa(int(r.Color.B)), r.Hex,
		strconv.FormatFloat(r.Brightness, 'f', -1, 64), itoa(r.BrightnessLevel), r.BrightnessName,
		string(r.HueGroup), string(r.Category), string(r.Temperature),
		strconv.FormatBool(r.Favorite),
	}
}

// ReadCSV parses a CSV produced by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", ErrInvalidCSV)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrInvalidCSV, header)
	}

	rows := []Row{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, line, err)
		}
		rows = append(rows, row)
	}
}

func parseRow(rec []string) (Row, error) {
	p := fieldParser{rec: rec}
	row := Row{
		Index: p.intAt(0),
		Name:  rec[1],
	}
	for i, c := range palette.Channels {
		row.Channels[c] = p.dmxAt(2 + i)
	}
	row.Color = palette.PerceivedColor{R: p.byteAt(7), G: p.byteAt(8), B: p.byteAt(9)}
	row.Hex = rec[10]
	row.Brightness = p.floatAt(11)
	row.BrightnessLevel = p.intAt(12)
	row.BrightnessName = rec[13]
	row.HueGroup = palette.HueGroup(rec[14])
	row.Category = palette.Category(rec[15])
	row.Temperature = palette.Temperature(rec[16])
	row.Favorite = p.boolAt(17)
	return row, p.err
}

// fieldParser keeps the first conversion error.
type fieldParser struct {
	rec []string
	err error
}

func (p *fieldParser) fail(col int, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("column %q: %w", Header[col], err)
	}
}

func (p *fieldParser) intAt(col int) int {
	v, err := strconv.Atoi(p.rec[col])
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *fieldParser) dmxAt(col int) int {
	v := p.intAt(col)
	if v < palette.MinDMXValue || v > palette.MaxDMXValue {
		p.fail(col, fmt.Errorf("%d outside DMX range", v))
	}
	return v
}

func (p *fieldParser) byteAt(col int) uint8 {
	v, err := strconv.ParseUint(p.rec[col], 10, 8)
	if err != nil {
		p.fail(col, err)
	}
	return uint8(v)
}

func (p *fieldParser) floatAt(col int) float64 {
	v, err := strconv.ParseFloat(p.rec[col], 64)
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *fieldParser) boolAt(col int) bool {
	v, err := strconv.ParseBool(p.rec[col])
	if err != nil {
		p.fail(col, err)
	}
	return v
}
