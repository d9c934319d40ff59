// diagnostics.go - Taint Diagnostics and Register/Flag Dump
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package softx86

import (
	"fmt"
	"log/slog"

	"github.com/xlab/treeprint"
)

// Diagnostics is the sink warn_if_flags_tainted and friends write to. It
// wraps log/slog rather than a third-party structured-logging library:
// no repo in the retrieved corpus depends on zerolog/zap/logrus, and
// jam-duna-jamduna's own log package is itself a thin wrapper over
// log/slog, so this follows that precedent instead of introducing an
// unattested dependency (see DESIGN.md).
type Diagnostics struct {
	logger *slog.Logger
}

// NewDiagnostics wraps the given slog.Logger, or the default logger if
// nil.
func NewDiagnostics(logger *slog.Logger) *Diagnostics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Diagnostics{logger: logger}
}

// warnIfTainted emits a taint diagnostic naming the instruction and
// base_eip when tainted is true, without stopping execution — a taint
// diagnostic is not an error.
func (c *SoftCPU) warnIfTainted(tainted bool, message string) {
	if !tainted {
		return
	}
	c.diag.logger.Warn("uninitialized value used in control flow",
		slog.String("context", message),
		slog.Uint64("base_eip", uint64(c.regs.baseEIP)),
	)
}

// warnIfFlagsTainted is warnIfTainted specialized to the flags_tainted
// summary bit.
func (c *SoftCPU) warnIfFlagsTainted(message string) {
	c.warnIfTainted(c.regs.flagsTainted, message)
}

// Dump renders the register/flag/fetch-cache snapshot as a tree, for
// debugging. Grounded on jam-duna-jamduna's BT_Node.ToTree — a debug
// dump benefits from the same structure a block tree does (named
// groups, nested detail) more than a single flat Printf line does.
func (c *SoftCPU) Dump() string {
	root := treeprint.New()
	root.SetValue("SoftCPU")

	gprs := root.AddBranch("general purpose")
	names := []string{"EAX", "ECX", "EDX", "EBX", "ESP", "EBP", "ESI", "EDI"}
	for i, name := range names {
		v := c.regs.gpr[i].full32()
		gprs.AddNode(fmt.Sprintf("%s = %#08x (shadow %#08x)", name, v.Value(), v.Shadow()))
	}

	segs := root.AddBranch("segments")
	segNames := []string{"ES", "CS", "SS", "DS", "FS", "GS"}
	for i, name := range segNames {
		segs.AddNode(fmt.Sprintf("%s = %#04x", name, c.regs.segment[i]))
	}

	flags := root.AddBranch("flags")
	flags.AddNode(fmt.Sprintf("EFLAGS = %#08x", c.regs.eflags))
	flags.AddNode(fmt.Sprintf("OF=%v SF=%v ZF=%v AF=%v PF=%v CF=%v DF=%v TF=%v IF=%v",
		c.regs.OF(), c.regs.SF(), c.regs.ZF(), c.regs.AF(), c.regs.PF(), c.regs.CF(), c.regs.DF(), c.regs.TF(), c.regs.IF()))
	flags.AddNode(fmt.Sprintf("flags_tainted = %v", c.regs.flagsTainted))

	exec := root.AddBranch("execution")
	exec.AddNode(fmt.Sprintf("EIP = %#08x", c.regs.eip))
	exec.AddNode(fmt.Sprintf("base_eip = %#08x", c.regs.baseEIP))
	if c.fetch.region != nil {
		exec.AddNode(fmt.Sprintf("fetch cache: region base=%#08x size=%#x", c.fetch.region.Base(), c.fetch.region.Size()))
	} else {
		exec.AddNode("fetch cache: empty")
	}

	return root.String()
}
