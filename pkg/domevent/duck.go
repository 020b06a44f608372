package domevent

// IsEvent reports whether v duck-types as an event (spec §4.4: "a value is
// an event iff it has a nativeEvent field and an isDefaultPrevented
// method"). In Go this collapses to an interface assertion: any concrete
// wrapper exposing both members satisfies EventLike.
func IsEvent(v any) (EventLike, bool) {
	ev, ok := v.(EventLike)
	return ev, ok
}
