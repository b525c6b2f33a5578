package tickerrs

import "testing"

func TestKindClassification(t *testing.T) {
	cases := []struct {
		code Code
		want Kind
	}{
		{CodeDiscriminantInvalid, KindFatal},
		{CodeVDFStepFailure, KindTickDegrading},
		{CodeValidationFailure, KindTransactionLocal},
	}
	for _, c := range cases {
		err := New(c.code, "detail")
		te := err.(*Error)
		if te.Kind() != c.want {
			t.Fatalf("%s: Kind() = %s, want %s", c.code, te.Kind(), c.want)
		}
	}
}

func TestIsHelpers(t *testing.T) {
	if !IsFatal(New(CodeStoreWriteFailure, "")) {
		t.Fatalf("expected IsFatal")
	}
	if !IsTickDegrading(New(CodeAggregationOverflow, "")) {
		t.Fatalf("expected IsTickDegrading")
	}
	if !IsTransactionLocal(New(CodeApplyPreconditionFailed, "")) {
		t.Fatalf("expected IsTransactionLocal")
	}
}

func TestErrorMessageFormat(t *testing.T) {
	err := New(CodeValidationFailure, "nonce too low")
	if err.Error() != "TX_ERR_VALIDATION_FAILURE: nonce too low" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
