package abi

import "testing"

func TestCatalogPopulatesEveryCall(t *testing.T) {
	for _, c := range AllCalls() {
		if Catalog[c].Symbol == "" {
			t.Errorf("Call %d has no symbol in the catalog", c)
		}
	}
}

func TestSymbolNamesAreDistinctPerConcern(t *testing.T) {
	if Symbol(Load) == Symbol(LoadAggr) {
		t.Fatal("Load and LoadAggr must lower to distinct runtime symbols (__CrestLoad vs __CrestLoadAggr)")
	}
	if Symbol(Branch) == Symbol(CallCall) {
		t.Fatal("Branch and Call must lower to distinct runtime symbols")
	}
}

func TestEveryCallCarriesAnInstrumentationID(t *testing.T) {
	for _, c := range AllCalls() {
		args := Catalog[c].Args
		if len(args) == 0 || args[0] != ArgInstrID {
			t.Errorf("Call %d (%s) does not lead with ArgInstrID: %v", c, Symbol(c), args)
		}
	}
}

func TestApply1And2CarryAnOpArgument(t *testing.T) {
	for _, c := range []Call{Apply1, Apply2, PtrApply2} {
		found := false
		for _, a := range Catalog[c].Args {
			if a == ArgOp {
				found = true
			}
		}
		if !found {
			t.Errorf("Call %d (%s) is missing an op argument", c, Symbol(c))
		}
	}
}
