package protocol

import (
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	in := &TurnStart{
		DrawerID:   "p1",
		DrawerName: "Mia",
		Hint:       " _  _  _ ",
		Round:      2,
		StartMs:    1700000000000,
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if !strings.Contains(string(data), `"type":"turn_start"`) {
		t.Fatalf("missing type tag in %s", data)
	}

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, ok := m.(*TurnStart)
	if !ok {
		t.Fatalf("decoded %T, want *TurnStart", m)
	}

	if out.DrawerID != in.DrawerID || out.Hint != in.Hint || out.Round != in.Round || out.StartMs != in.StartMs {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestDecodeUnknownKindIsNoOp(t *testing.T) {
	t.Parallel()

	m, err := Decode([]byte(`{"type":"hologram_sync","x":1}`))
	if err != nil {
		t.Fatalf("unknown kind must not error: %v", err)
	}
	if m != nil {
		t.Fatalf("unknown kind must decode to nil, got %T", m)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestDecodeDispatchesEveryKind(t *testing.T) {
	t.Parallel()

	messages := []Message{
		&Join{}, &Lobby{}, &Error{}, &StartGame{}, &StartMath{},
		&MathComplete{}, &StartBoutique{}, &NextBoutique{},
		&BoutiqueComplete{}, &GameOver{}, &TurnStart{}, &TurnWord{},
		&Stroke{}, &Clear{}, &Undo{}, &Guess{}, &Chat{}, &Correct{},
		&Hint{}, &TurnEnd{}, &SketchOver{},
	}

	for _, in := range messages {
		data, err := Encode(in)
		if err != nil {
			t.Fatalf("encode %s: %v", in.Kind(), err)
		}

		out, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %s: %v", in.Kind(), err)
		}
		if out == nil || out.Kind() != in.Kind() {
			t.Fatalf("kind %s dispatched to %v", in.Kind(), out)
		}
	}
}
