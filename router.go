package main

import "strings"

// HandlerFunc turns a request into a response. arg is the part of the path
// captured by the route, if any.
type HandlerFunc func(req *Request, arg string) *Response

// Route matches a request path either exactly or by prefix. NonEmpty
// requires at least one byte after a prefix pattern. When Methods is set the
// handler is picked by request method instead of Handler. Upload names the
// method whose body is read past what came in with the headers.
type Route struct {
	Pattern  string
	Prefix   bool
	NonEmpty bool
	Handler  HandlerFunc
	Methods  map[string]HandlerFunc
	Upload   string
}

func (r *Route) match(path string) (string, bool) {
	if !r.Prefix {
		return "", path == r.Pattern
	}
	if !strings.HasPrefix(path, r.Pattern) {
		return "", false
	}
	rest := path[len(r.Pattern):]
	if r.NonEmpty && len(rest) == 0 {
		return "", false
	}
	return rest, true
}

// Router is an ordered route table; the first match wins.
type Router struct {
	routes   []Route
	notFound HandlerFunc
}

// NewRouter builds the fixed route table. Files are resolved against dir.
func NewRouter(dir string) *Router {
	files := &fileStore{dir: dir}
	return &Router{
		routes: []Route{
			{Pattern: "/", Handler: health},
			{Pattern: "/echo/", Prefix: true, NonEmpty: true, Handler: echo},
			{Pattern: "/user-agent", Handler: userAgent},
			{Pattern: "/files/", Prefix: true, Methods: map[string]HandlerFunc{
				"GET":  files.get,
				"POST": files.post,
			}, Upload: "POST"},
		},
		notFound: notFound,
	}
}

func (rt *Router) lookup(path string) (*Route, string) {
	for i := range rt.routes {
		r := &rt.routes[i]
		if arg, ok := r.match(path); ok {
			return r, arg
		}
	}
	return nil, ""
}

// WantsBody reports whether the route for req takes the full request body.
func (rt *Router) WantsBody(req *Request) bool {
	r, _ := rt.lookup(req.Path)
	return r != nil && r.Upload != "" && r.Upload == req.Method
}

// Route selects the handler for path and method, along with the captured
// remainder of the path. Paths are compared as received, without decoding.
func (rt *Router) Route(path, method string) (HandlerFunc, string) {
	r, arg := rt.lookup(path)
	if r == nil {
		return rt.notFound, ""
	}
	if r.Methods == nil {
		return r.Handler, arg
	}
	if h, ok := r.Methods[method]; ok {
		return h, arg
	}
	return rt.notFound, ""
}

func (rt *Router) Serve(req *Request) *Response {
	h, arg := rt.Route(req.Path, req.Method)
	return h(req, arg)
}
