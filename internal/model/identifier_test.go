package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVHDLIdentifier_CaseInsensitive(t *testing.T) {
	a := VHDLIdentifier("Clk_Divider")
	b := VHDLIdentifier("clk_divider")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "Clk_Divider", a.Display())
	assert.Equal(t, "clk_divider", a.Name())
}

func TestVerilogIdentifier_CaseSensitive(t *testing.T) {
	a := VerilogIdentifier("TopModule")
	b := VerilogIdentifier("topmodule")

	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "TopModule", a.Name())
}

func TestVerilogIdentifier_KeyPreservesCase(t *testing.T) {
	// Names differing only in case are distinct units; their map keys
	// must not collide.
	a := VerilogIdentifier("Ctrl")
	b := VerilogIdentifier("ctrl")

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), VerilogIdentifier("Ctrl").Key())
}

func TestIdentifier_MixedStrategyComparison(t *testing.T) {
	// When either side is case-insensitive the comparison degrades to
	// case-insensitive, so a VHDL reference can match a Verilog unit.
	// Keys stay policy-local: the insensitive class and the exact
	// spelling index separately.
	vhdl := VHDLIdentifier("FIFO")
	verilog := VerilogIdentifier("fifo")

	assert.True(t, vhdl.Equal(verilog))
	assert.True(t, verilog.Equal(vhdl))
	assert.NotEqual(t, vhdl.Key(), verilog.Key())
}

func TestIdentifier_Zero(t *testing.T) {
	assert.True(t, Identifier{}.Zero())
	assert.False(t, VHDLIdentifier("x").Zero())
}
