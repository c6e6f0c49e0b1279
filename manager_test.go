package argus_test

import (
	"errors"
	"io"
	"log"
	"testing"

	"github.com/seclab/argus"
	"github.com/seclab/argus/ir"
)

func TestNewManagerRequiresHierarchy(t *testing.T) {
	t.Parallel()

	if _, err := argus.NewManager(argus.NewConfig(), nil, nil); !errors.Is(err, argus.ErrNilHierarchy) {
		t.Fatalf("want ErrNilHierarchy, got %v", err)
	}
}

func TestRunRejectsUnknownAnalysis(t *testing.T) {
	t.Parallel()

	m, err := argus.NewManager(argus.NewConfig(), ir.NewHierarchy(), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := m.Run("mystery", nil); !errors.Is(err, argus.ErrUnknownAnalysis) {
		t.Fatalf("want ErrUnknownAnalysis, got %v", err)
	}
}

func TestRunIDIsStable(t *testing.T) {
	t.Parallel()

	m, err := argus.NewManager(nil, ir.NewHierarchy(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.RunID() == "" || m.RunID() != m.RunID() {
		t.Fatalf("run id should be a stable non-empty identifier")
	}
}

func TestPointsToRejectsUnknownPolicy(t *testing.T) {
	t.Parallel()

	cfg := argus.NewConfig()
	cfg.PTAPolicy = "banana"
	h := ir.NewHierarchy()
	cls := h.NewClass("Main")
	mainM := h.NewMethod(cls, "main", "void main()", ir.Static())
	b := ir.NewBuilder(mainM)
	b.ReturnVoid()
	b.Finish()

	m, err := argus.NewManager(cfg, h, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := m.PointsTo(mainM); err == nil {
		t.Fatalf("unknown policy should surface at solver construction")
	}
}
