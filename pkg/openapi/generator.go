package openapi

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// RouteDocs describes one route beyond what gin knows about it
type RouteDocs struct {
	Summary     string
	Description string
	Tags        []string
	Query       []Parameter
	RequestBody any // struct whose json tags give the body schema
	Responses   map[int]ResponseDoc
	// Secured marks routes that need the session cookie
	Secured bool
}

type ResponseDoc struct {
	Description string
	Model       any
	Example     any
}

// CookieAuth names the session cookie security scheme
const CookieAuth = "cookieAuth"

// Generator builds an OpenAPI document from a gin engine's routes
type Generator struct {
	engine     *gin.Engine
	info       Info
	servers    []Server
	tags       []Tag
	cookieName string

	mu        sync.RWMutex
	routeDocs map[string]RouteDocs
}

func NewGenerator(engine *gin.Engine, info Info, servers []Server, tags []Tag) *Generator {
	return &Generator{
		engine:    engine,
		info:      info,
		servers:   servers,
		tags:      tags,
		routeDocs: make(map[string]RouteDocs),
	}
}

// WithCookieAuth declares the session cookie as the API's security scheme
func (g *Generator) WithCookieAuth(cookieName string) *Generator {
	g.cookieName = cookieName
	return g
}

// RegisterDocs attaches docs to a route, keyed by method and gin path,
// e.g. ("PUT", "/api/v1/repositories/:id/refresh")
func (g *Generator) RegisterDocs(method, path string, docs RouteDocs) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routeDocs[method+" "+path] = docs
}

// Generate walks the engine's routes. Routes without registered docs get a
// bare operation so the document still lists every endpoint.
func (g *Generator) Generate() *OpenAPI {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := &OpenAPI{
		OpenAPI: "3.0.3",
		Info:    g.info,
		Servers: g.servers,
		Tags:    g.tags,
		Paths:   make(map[string]*PathItem),
		Components: Components{
			Schemas: make(map[string]*Schema),
		},
	}
	if g.cookieName != "" {
		doc.Components.SecuritySchemes = map[string]any{
			CookieAuth: map[string]string{"type": "apiKey", "in": "cookie", "name": g.cookieName},
		}
	}

	for _, route := range g.engine.Routes() {
		path := convertPath(route.Path)
		item, ok := doc.Paths[path]
		if !ok {
			item = &PathItem{}
			doc.Paths[path] = item
		}

		op := &Operation{
			Summary:     route.Handler,
			OperationID: getOperationID(route.Handler),
			Parameters:  extractPathParams(route.Path),
			Responses:   make(map[string]Response),
		}
		if docs, ok := g.routeDocs[route.Method+" "+route.Path]; ok {
			g.apply(doc, op, docs)
		}
		if len(op.Responses) == 0 {
			op.Responses["200"] = Response{Description: "Successful response"}
		}

		item.set(route.Method, op)
	}

	return doc
}

func (g *Generator) apply(doc *OpenAPI, op *Operation, docs RouteDocs) {
	if docs.Summary != "" {
		op.Summary = docs.Summary
	}
	op.Description = docs.Description
	op.Tags = docs.Tags
	op.Parameters = append(op.Parameters, docs.Query...)

	if docs.Secured && g.cookieName != "" {
		op.Security = []map[string][]string{{CookieAuth: {}}}
	}

	if docs.RequestBody != nil {
		op.RequestBody = &RequestBody{
			Content:  jsonContent(doc, docs.RequestBody, nil),
			Required: true,
		}
	}

	for status, resp := range docs.Responses {
		r := Response{Description: resp.Description}
		if r.Description == "" {
			r.Description = http.StatusText(status)
		}
		if resp.Model != nil {
			r.Content = jsonContent(doc, resp.Model, resp.Example)
		}
		op.Responses[strconv.Itoa(status)] = r
	}
}

// jsonContent registers named struct models as components and refers to them
func jsonContent(doc *OpenAPI, model, example any) map[string]MediaType {
	schema := GenerateSchema(model)

	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct && t.Name() != "" {
		doc.Components.Schemas[t.Name()] = schema
		schema = &Schema{Ref: "#/components/schemas/" + t.Name()}
	}
	if example != nil {
		schema.Example = example
	}

	return map[string]MediaType{"application/json": {Schema: schema}}
}

// Handler serves the document as JSON, generated on first request so every
// route is registered by then
func (g *Generator) Handler() gin.HandlerFunc {
	var (
		once sync.Once
		doc  *OpenAPI
	)
	return func(c *gin.Context) {
		once.Do(func() { doc = g.Generate() })
		c.JSON(http.StatusOK, doc)
	}
}

func (p *PathItem) set(method string, op *Operation) {
	switch method {
	case http.MethodGet:
		p.Get = op
	case http.MethodPost:
		p.Post = op
	case http.MethodPut:
		p.Put = op
	case http.MethodDelete:
		p.Delete = op
	case http.MethodPatch:
		p.Patch = op
	case http.MethodHead:
		p.Head = op
	case http.MethodOptions:
		p.Options = op
	}
}

// convertPath turns /repositories/:id into /repositories/{id}
func convertPath(ginPath string) string {
	parts := strings.Split(ginPath, "/")
	for i, part := range parts {
		if name, ok := paramName(part); ok {
			parts[i] = "{" + name + "}"
		}
	}
	return strings.Join(parts, "/")
}

func extractPathParams(ginPath string) []Parameter {
	var params []Parameter
	for _, part := range strings.Split(ginPath, "/") {
		if name, ok := paramName(part); ok {
			params = append(params, Parameter{
				Name:     name,
				In:       "path",
				Required: true,
				Schema:   &Schema{Type: "string"},
			})
		}
	}
	return params
}

func paramName(segment string) (string, bool) {
	if strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
		return segment[1:], true
	}
	return "", false
}

// getOperationID shortens gin's handler name, e.g.
// ".../handler.(*RepoHandler).AddRepository-fm" becomes "handler_RepoHandler_AddRepository"
func getOperationID(handlerName string) string {
	parts := strings.Split(handlerName, "/")
	last := parts[len(parts)-1]
	last = strings.TrimSuffix(last, "-fm")

	return strings.NewReplacer("(", "", ")", "", "*", "", ".", "_").Replace(last)
}
