package locales

import (
	"fmt"
	"net/url"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

// Route names registered in the public route group.
const (
	RouteHomepage    = "homepage"
	RouteProduct     = "product"
	RouteCollection  = "collection"
	RouteLeaderboard = "leaderboard"
)

const (
	publicGroup    = "public"
	defaultBaseURL = "http://localhost"
	localeParam    = "locale"
	slugParam      = "slug"
)

// RouteConfig is the go-urlkit configuration for the public catalog paths.
func RouteConfig(baseURL string) *urlkit.Config {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    publicGroup,
				BaseURL: baseURL,
				Paths: map[string]string{
					RouteHomepage:    "/:locale",
					RouteProduct:     "/:locale/products/:slug",
					RouteCollection:  "/:locale/collections/:slug",
					RouteLeaderboard: "/:locale/leaderboards/:slug",
				},
			},
		},
	}
}

// Routes renders public URLs and paths through a go-urlkit route group.
type Routes struct {
	group *urlkit.Group
}

// NewRoutes builds the public route group rooted at baseURL. An empty
// baseURL renders against localhost; paths are unaffected by it.
func NewRoutes(baseURL string) (*Routes, error) {
	manager := urlkit.NewRouteManager(RouteConfig(baseURL))
	group, err := lookupGroup(manager, publicGroup)
	if err != nil {
		return nil, err
	}
	return &Routes{group: group}, nil
}

// URL renders the absolute URL of route for locale. slug is ignored by the
// homepage route.
func (r *Routes) URL(route, locale, slug string) (string, error) {
	if r == nil || r.group == nil {
		return "", fmt.Errorf("locales: routes not configured")
	}
	builder, err := safeBuilder(r.group, route)
	if err != nil {
		return "", err
	}
	builder.WithParam(localeParam, locale)
	if route != RouteHomepage {
		if strings.TrimSpace(slug) == "" {
			return "", fmt.Errorf("locales: route %s needs a slug", route)
		}
		builder.WithParam(slugParam, slug)
	}
	return builder.Build()
}

// Path renders the site-relative path of route for locale.
func (r *Routes) Path(route, locale, slug string) (string, error) {
	raw, err := r.URL(route, locale, slug)
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("locales: parse %s url: %w", route, err)
	}
	return parsed.Path, nil
}

// PathFor binds route so the result can be handed to redirect synthesis.
func (r *Routes) PathFor(route string) func(locale, slug string) (string, error) {
	return func(locale, slug string) (string, error) {
		return r.Path(route, locale, slug)
	}
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("locales: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("locales: route %q not registered", route)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}

var defaultRoutes = mustRoutes()

func mustRoutes() *Routes {
	routes, err := NewRoutes("")
	if err != nil {
		panic(err)
	}
	return routes
}

// DefaultRoutes is the route group rooted at localhost.
func DefaultRoutes() *Routes {
	return defaultRoutes
}

// HomepagePath is the public root for a locale.
func HomepagePath(locale string) (string, error) {
	return defaultRoutes.Path(RouteHomepage, locale, "")
}

// ProductPath is the public path of a product slug.
func ProductPath(locale, slug string) (string, error) {
	return defaultRoutes.Path(RouteProduct, locale, slug)
}

// CollectionPath is the public path of a collection slug.
func CollectionPath(locale, slug string) (string, error) {
	return defaultRoutes.Path(RouteCollection, locale, slug)
}

// LeaderboardPath is the public path of a leaderboard.
func LeaderboardPath(locale, boardID string) (string, error) {
	return defaultRoutes.Path(RouteLeaderboard, locale, boardID)
}
