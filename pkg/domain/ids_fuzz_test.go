package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseRequestID checks that request IDs taken from URL paths either
// parse to a non-nil ID that round-trips or are rejected.
func FuzzParseRequestID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("{550e8400-e29b-41d4-a716-446655440000}")
	f.Add("../blood-banks")
	f.Add(string([]byte{0xff, 0xfe}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRequestID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("nil request ID accepted")
		}
		if !utf8.ValidString(input) {
			t.Fatalf("non-UTF8 input %q accepted", input)
		}
		again, err := ParseRequestID(id.String())
		if err != nil || again != id {
			t.Fatalf("request ID %s did not round-trip", id)
		}
	})
}

// FuzzParseIDsAgree keeps every profile ID type on the same validation.
func FuzzParseIDsAgree(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("not-a-uuid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errUser := ParseUserID(input)
		errs := []error{}
		for _, parse := range []func(string) error{
			func(s string) error { _, err := ParseDonorID(s); return err },
			func(s string) error { _, err := ParseReceiverID(s); return err },
			func(s string) error { _, err := ParseHospitalID(s); return err },
			func(s string) error { _, err := ParseBloodBankID(s); return err },
			func(s string) error { _, err := ParseDonationID(s); return err },
		} {
			errs = append(errs, parse(input))
		}
		for i, err := range errs {
			if (err == nil) != (errUser == nil) {
				t.Fatalf("parser %d disagrees with ParseUserID on %q", i, input)
			}
		}
	})
}

// FuzzParseBloodGroup accepts exactly the eight ABO/Rh groups.
func FuzzParseBloodGroup(f *testing.F) {
	for _, g := range BloodGroups() {
		f.Add(string(g))
	}
	f.Add("o+")
	f.Add("AB")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		g, err := ParseBloodGroup(input)
		valid := false
		for _, known := range BloodGroups() {
			if string(known) == input {
				valid = true
			}
		}
		if valid != (err == nil) {
			t.Fatalf("ParseBloodGroup(%q) = %q, %v", input, g, err)
		}
	})
}
