package router

import (
	"net/url"
	"testing"
)

func mustRoutes(t *testing.T, routes []*Route) []*Route {
	t.Helper()
	for _, r := range routes {
		if err := CompileTree(r); err != nil {
			t.Fatalf("CompileTree: %v", err)
		}
	}
	return routes
}

func TestSelectBestMatchStaticBeatsDynamic(t *testing.T) {
	routes := mustRoutes(t, []*Route{
		{Path: "users/:id"},
		{Path: "users/new"},
	})
	m := SelectBestMatch(routes, "/users/new")
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.Chain[0].Path != "users/new" {
		t.Fatalf("expected static route to win, got %q", m.Chain[0].Path)
	}
}

func TestMatchOptionalSegmentAbsent(t *testing.T) {
	routes := mustRoutes(t, []*Route{{Path: "posts/:id?"}})
	m := SelectBestMatch(routes, "/posts")
	if m == nil {
		t.Fatal("expected a match")
	}
	if v, ok := m.Params["id"]; !ok || v != nil {
		t.Fatalf("expected id param present and nil, got %v (present=%v)", v, ok)
	}
}

func TestMatchCatchall(t *testing.T) {
	routes := mustRoutes(t, []*Route{{Path: "files/*"}})
	m := SelectBestMatch(routes, "/files/a/b/c")
	if m == nil {
		t.Fatal("expected a match")
	}
	if got := m.Catchall(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("got %v", got)
	}
}

func TestParsePatternRejectsNonTerminalCatchall(t *testing.T) {
	if _, err := ParsePattern("a/*/b"); err == nil {
		t.Fatal("expected error for non-terminal catch-all")
	}
}

func TestLayoutRouteDoesNotConsumeSegments(t *testing.T) {
	routes := mustRoutes(t, []*Route{
		{Path: "", Children: []*Route{
			{Path: "dashboard"},
		}},
	})
	m := SelectBestMatch(routes, "/dashboard")
	if m == nil {
		t.Fatal("expected a match")
	}
	if len(m.Chain) != 2 {
		t.Fatalf("expected layout + leaf in chain, got %d entries", len(m.Chain))
	}
}

func TestIndexRouteMatchesEmptyRemainder(t *testing.T) {
	routes := mustRoutes(t, []*Route{
		{Path: "dashboard", Children: []*Route{
			{Index: true},
		}},
	})
	m := SelectBestMatch(routes, "/dashboard")
	if m == nil {
		t.Fatal("expected a match")
	}
	if !m.Chain[len(m.Chain)-1].Index {
		t.Fatal("expected index route to be the deepest match")
	}
}

func TestNoMatchReturnsNil(t *testing.T) {
	routes := mustRoutes(t, []*Route{{Path: "a"}})
	if m := SelectBestMatch(routes, "/b"); m != nil {
		t.Fatalf("expected nil, got %+v", m)
	}
}

func TestValidateCatchesDuplicateSiblings(t *testing.T) {
	routes := []*Route{{Path: "a"}, {Path: "a"}}
	errs := Validate(routes)
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error, got %v", errs)
	}
}

func TestClassifyDestinationSameOriginIsSPA(t *testing.T) {
	cur, _ := url.Parse("https://example.com/foo")
	resolved, kind := ClassifyDestination(cur, "https://example.com/bar", false)
	if kind != DestSPA || resolved != "/bar" {
		t.Fatalf("got resolved=%q kind=%v", resolved, kind)
	}
}

func TestClassifyDestinationCrossOriginIsHard(t *testing.T) {
	cur, _ := url.Parse("https://example.com/foo")
	_, kind := ClassifyDestination(cur, "https://other.com/bar", false)
	if kind != DestHard {
		t.Fatalf("expected hard navigation, got %v", kind)
	}
}

func TestClassifyDestinationProtocolRelative(t *testing.T) {
	cur, _ := url.Parse("https://example.com/foo")
	_, kind := ClassifyDestination(cur, "//example.com/bar", false)
	if kind != DestSPA {
		t.Fatalf("expected SPA navigation for same-host protocol-relative URL, got %v", kind)
	}
}

func TestClassifyDestinationRelativePathIsSPA(t *testing.T) {
	cur, _ := url.Parse("https://example.com/foo")
	resolved, kind := ClassifyDestination(cur, "/baz", false)
	if kind != DestSPA || resolved != "/baz" {
		t.Fatalf("got resolved=%q kind=%v", resolved, kind)
	}
}

func TestClassifyDestinationHardForced(t *testing.T) {
	cur, _ := url.Parse("https://example.com/foo")
	_, kind := ClassifyDestination(cur, "/baz", true)
	if kind != DestHard {
		t.Fatal("expected hard navigation when hard=true regardless of origin")
	}
}
