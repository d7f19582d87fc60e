package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{ErrProtoBadRequest, ErrBadRequest, ErrBusy, ErrStale, ErrInternal, ""} {
		if !IsKnownCode(code) {
			t.Fatalf("code %q not recognized", code)
		}
	}
	if IsKnownCode("E_MADE_UP") {
		t.Fatal("unknown code accepted")
	}
}
