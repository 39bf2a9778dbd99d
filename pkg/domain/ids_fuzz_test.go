package domain

import "testing"

// FuzzParseUserID checks that parsing never panics and that accepted ids
// round-trip unchanged.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)
		if err != nil {
			return
		}
		if id.String() != input {
			t.Errorf("round trip changed id: %q -> %q", input, id)
		}
		if len(input) == 0 || len(input) > maxIDLength {
			t.Errorf("accepted out-of-range length %d", len(input))
		}
	})
}
