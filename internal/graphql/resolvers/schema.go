package resolvers

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/bbernstein/lacylights-palette/internal/favorites"
)

//go:embed schema.graphqls
var schemaSource string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSource})

// NewExecutableSchema binds the palette schema to r. The result is served
// with handler.New from gqlgen; the handler parses and validates every
// operation against the schema before Exec runs.
func NewExecutableSchema(r *Resolver) graphql.ExecutableSchema {
	return &executableSchema{resolvers: r}
}

type executableSchema struct {
	resolvers *Resolver
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

func (e *executableSchema) Complexity(_ context.Context, _, _ string, _ int, _ map[string]any) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	ec := &executionContext{OperationContext: opCtx, resolvers: e.resolvers}
	op := opCtx.Operation

	switch op.Operation {
	case ast.Query:
		return once(func(ctx context.Context) *graphql.Response {
			return ec.root(ctx, "Query", op.SelectionSet, ec.queryField)
		})
	case ast.Mutation:
		return once(func(ctx context.Context) *graphql.Response {
			return ec.root(ctx, "Mutation", op.SelectionSet, ec.mutationField)
		})
	case ast.Subscription:
		return ec.subscription(ctx, op.SelectionSet)
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}
}

// once runs h for the first call only; later calls end the stream.
func once(h graphql.ResponseHandler) graphql.ResponseHandler {
	done := false
	return func(ctx context.Context) *graphql.Response {
		if done {
			return nil
		}
		done = true
		return h(ctx)
	}
}

type executionContext struct {
	*graphql.OperationContext
	resolvers *Resolver
}

type rootResolver func(ctx context.Context, f graphql.CollectedField) (graphql.Marshaler, error)

// root resolves the top-level fields in order. A failing field is null in
// the data and reported in the errors with its path.
func (ec *executionContext) root(ctx context.Context, typeName string, sel ast.SelectionSet, resolve rootResolver) *graphql.Response {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{typeName})
	out := graphql.NewFieldSet(fields)
	var errs gqlerror.List
	for i, f := range fields {
		if f.Name == "__typename" {
			out.Values[i] = graphql.MarshalString(typeName)
			continue
		}
		v, err := resolve(ctx, f)
		if err != nil {
			errs = append(errs, &gqlerror.Error{Message: err.Error(), Path: ast.Path{ast.PathName(f.Alias)}})
			v = graphql.Null
		}
		out.Values[i] = v
	}
	return &graphql.Response{Data: marshal(out), Errors: errs}
}

func (ec *executionContext) queryField(ctx context.Context, f graphql.CollectedField) (graphql.Marshaler, error) {
	args := f.ArgumentMap(ec.Variables)
	switch f.Name {
	case "records":
		filter, err := filterValues(args["filter"])
		if err != nil {
			return nil, err
		}
		for _, key := range []string{"offset", "limit"} {
			n, err := intArg(args, key)
			if err != nil {
				return nil, err
			}
			filter.Set(key, strconv.Itoa(n))
		}
		page, err := ec.resolvers.Records(ctx, filter)
		if err != nil {
			return nil, err
		}
		return ec.recordPage(f.Selections, page), nil
	case "record":
		index, err := intArg(args, "index")
		if err != nil {
			return nil, err
		}
		rec, err := ec.resolvers.Record(ctx, index)
		if err != nil {
			return nil, err
		}
		return ec.record(f.Selections, rec), nil
	case "favorites":
		return ec.records(f.Selections, ec.resolvers.FavoriteRecords(ctx)), nil
	case "summary":
		return ec.summary(f.Selections, ec.resolvers.Summary(ctx)), nil
	case "__schema", "__type":
		return nil, fmt.Errorf("introspection is not served")
	}
	return nil, fmt.Errorf("unknown field %q on Query", f.Name)
}

func (ec *executionContext) mutationField(ctx context.Context, f graphql.CollectedField) (graphql.Marshaler, error) {
	args := f.ArgumentMap(ec.Variables)
	index, err := intArg(args, "index")
	if err != nil {
		return nil, err
	}

	var res *FavoriteResult
	switch f.Name {
	case "setFavorite":
		on, _ := args["favorite"].(bool)
		res, err = ec.resolvers.SetFavorite(ctx, index, on)
	case "toggleFavorite":
		res, err = ec.resolvers.ToggleFavorite(ctx, index)
	default:
		return nil, fmt.Errorf("unknown field %q on Mutation", f.Name)
	}
	if err != nil {
		return nil, err
	}
	return ec.favoriteResult(f.Selections, res), nil
}

// subscription starts the single subscribed stream and returns a handler
// yielding one response per event until the stream closes.
func (ec *executionContext) subscription(ctx context.Context, sel ast.SelectionSet) graphql.ResponseHandler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"Subscription"})
	if len(fields) != 1 {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "must subscribe to exactly one stream"))
	}
	f := fields[0]
	if f.Name != "favoriteChanged" {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unknown field %q on Subscription", f.Name))
	}

	events, err := ec.resolvers.FavoriteChanged(ctx)
	if err != nil {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "%s", err.Error()))
	}
	return func(ctx context.Context) *graphql.Response {
		ev, ok := <-events
		if !ok {
			return nil
		}
		out := graphql.NewFieldSet(fields)
		out.Values[0] = ec.favoriteEvent(f.Selections, ev)
		return &graphql.Response{Data: marshal(out)}
	}
}

// object marshals the selected fields of one value of typeName.
func (ec *executionContext) object(sel ast.SelectionSet, typeName string, field func(f graphql.CollectedField) graphql.Marshaler) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{typeName})
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		if f.Name == "__typename" {
			out.Values[i] = graphql.MarshalString(typeName)
			continue
		}
		out.Values[i] = field(f)
	}
	return out
}

func (ec *executionContext) recordPage(sel ast.SelectionSet, p *RecordPage) graphql.Marshaler {
	return ec.object(sel, "RecordPage", func(f graphql.CollectedField) graphql.Marshaler {
		switch f.Name {
		case "total":
			return graphql.MarshalInt(p.Total)
		case "offset":
			return graphql.MarshalInt(p.Offset)
		case "limit":
			return graphql.MarshalInt(p.Limit)
		case "records":
			return ec.records(f.Selections, p.Records)
		}
		return graphql.Null
	})
}

func (ec *executionContext) records(sel ast.SelectionSet, recs []Record) graphql.Marshaler {
	out := make(graphql.Array, len(recs))
	for i := range recs {
		out[i] = ec.record(sel, &recs[i])
	}
	return out
}

func (ec *executionContext) record(sel ast.SelectionSet, rec *Record) graphql.Marshaler {
	c := rec.Classification
	return ec.object(sel, "Record", func(f graphql.CollectedField) graphql.Marshaler {
		switch f.Name {
		case "index":
			return graphql.MarshalInt(rec.Index)
		case "name":
			return graphql.MarshalString(rec.Name)
		case "channels":
			return graphql.MarshalString(rec.String())
		case "r":
			return graphql.MarshalInt(rec.Channels.R())
		case "g":
			return graphql.MarshalInt(rec.Channels.G())
		case "b":
			return graphql.MarshalInt(rec.Channels.B())
		case "w":
			return graphql.MarshalInt(rec.Channels.W())
		case "a":
			return graphql.MarshalInt(rec.Channels.A())
		case "hex":
			return graphql.MarshalString(rec.Color.Hex())
		case "luminance":
			return graphql.MarshalFloat(c.Luminance)
		case "brightnessLevel":
			return graphql.MarshalInt(c.BrightnessLevel)
		case "brightnessName":
			return graphql.MarshalString(rec.BrightnessName)
		case "hueGroup":
			return graphql.MarshalString(string(c.HueGroup))
		case "category":
			return graphql.MarshalString(string(c.Category))
		case "temperature":
			return graphql.MarshalString(string(c.Temperature))
		case "hue":
			return graphql.MarshalFloat(c.Hue)
		case "saturation":
			return graphql.MarshalFloat(c.Saturation)
		case "wheelX":
			x, _ := c.WheelPosition()
			return graphql.MarshalFloat(x)
		case "wheelY":
			_, y := c.WheelPosition()
			return graphql.MarshalFloat(y)
		case "favorite":
			return graphql.MarshalBoolean(rec.Favorite)
		}
		return graphql.Null
	})
}

func (ec *executionContext) favoriteResult(sel ast.SelectionSet, res *FavoriteResult) graphql.Marshaler {
	return ec.object(sel, "FavoriteResult", func(f graphql.CollectedField) graphql.Marshaler {
		switch f.Name {
		case "index":
			return graphql.MarshalInt(res.Index)
		case "favorite":
			return graphql.MarshalBoolean(res.Favorite)
		}
		return graphql.Null
	})
}

func (ec *executionContext) favoriteEvent(sel ast.SelectionSet, ev *favorites.Event) graphql.Marshaler {
	return ec.object(sel, "FavoriteEvent", func(f graphql.CollectedField) graphql.Marshaler {
		switch f.Name {
		case "signature":
			return graphql.MarshalString(ev.Signature)
		case "index":
			return graphql.MarshalInt(ev.Index)
		case "channels":
			return graphql.MarshalString(ev.Channels)
		case "favorite":
			return graphql.MarshalBoolean(ev.Favorite)
		}
		return graphql.Null
	})
}

func (ec *executionContext) summary(sel ast.SelectionSet, s *Summary) graphql.Marshaler {
	return ec.object(sel, "Summary", func(f graphql.CollectedField) graphql.Marshaler {
		switch f.Name {
		case "signature":
			return graphql.MarshalString(s.Signature)
		case "total":
			return graphql.MarshalInt(s.Total)
		case "favorites":
			return graphql.MarshalInt(s.Favorites)
		case "hueGroups":
			return ec.counts(f.Selections, s.HueGroups)
		case "categories":
			return ec.counts(f.Selections, s.Categories)
		case "brightnessLevels":
			return ec.counts(f.Selections, s.BrightnessLevels)
		}
		return graphql.Null
	})
}

func (ec *executionContext) counts(sel ast.SelectionSet, counts []Count) graphql.Marshaler {
	out := make(graphql.Array, len(counts))
	for i, c := range counts {
		out[i] = ec.object(sel, "Count", func(f graphql.CollectedField) graphql.Marshaler {
			switch f.Name {
			case "key":
				return graphql.MarshalString(c.Key)
			case "count":
				return graphql.MarshalInt(c.Count)
			}
			return graphql.Null
		})
	}
	return out
}

func marshal(m graphql.Marshaler) []byte {
	var buf bytes.Buffer
	m.MarshalGQL(&buf)
	return buf.Bytes()
}

// filterValues turns a RecordFilter input object into the query parameters
// api.ParseFilter reads; the input fields carry the parameter names.
func filterValues(v any) (url.Values, error) {
	q := url.Values{}
	if v == nil {
		return q, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("filter: expected an input object, got %T", v)
	}
	for key, raw := range m {
		switch val := raw.(type) {
		case nil:
		case string:
			q.Set(key, val)
		case bool:
			q.Set(key, strconv.FormatBool(val))
		case []any:
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("filter %s: expected strings, got %T", key, item)
				}
				q.Add(key, s)
			}
		default:
			return nil, fmt.Errorf("filter %s: unexpected %T", key, raw)
		}
	}
	return q, nil
}

func intArg(args map[string]any, name string) (int, error) {
	switch v := args[name].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %s: %w", name, err)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("argument %s: expected Int, got %T", name, v)
	}
}
