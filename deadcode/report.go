package deadcode

import (
	"fmt"
	"io"

	"github.com/gookit/color"

	"github.com/seclab/argus/ir"
)

// WriteReport prints the dead statements of a method, one line each, with
// the statement kind highlighted. Output is plain when the writer is not a
// terminal (gookit/color handles the detection).
func WriteReport(w io.Writer, body *ir.IR, dead []*ir.Stmt) {
	if len(dead) == 0 {
		fmt.Fprintf(w, "%s: no dead code\n", body.Method().Signature())
		return
	}
	fmt.Fprintf(w, "%s: %s\n",
		body.Method().Signature(),
		color.Red.Sprintf("%d dead statements", len(dead)))
	for _, s := range dead {
		fmt.Fprintf(w, "  line %d: %s\n", s.Line(), color.Yellow.Sprint(s.Kind()))
	}
}
