package cpu

import "testing"

func TestConditionTable(t *testing.T) {
	cases := []struct {
		name       string
		cond       uint32
		n, z, cIn, v bool
		want       bool
	}{
		{"EQ true", 0x0, false, true, false, false, true},
		{"EQ false", 0x0, false, false, false, false, false},
		{"NE", 0x1, false, false, false, false, true},
		{"CS", 0x2, false, false, true, false, true},
		{"CC", 0x3, false, false, false, false, true},
		{"MI", 0x4, true, false, false, false, true},
		{"PL", 0x5, false, false, false, false, true},
		{"VS", 0x6, false, false, false, true, true},
		{"VC", 0x7, false, false, false, false, true},
		{"HI", 0x8, false, false, true, false, true},
		{"HI false on zero", 0x8, false, true, true, false, false},
		{"LS", 0x9, false, true, false, false, true},
		{"GE n==v", 0xA, true, false, false, true, true},
		{"GE n!=v", 0xA, true, false, false, false, false},
		{"LT", 0xB, true, false, false, false, true},
		{"GT", 0xC, false, false, false, false, true},
		{"LE zero", 0xD, false, true, false, false, true},
		{"AL", 0xE, false, false, false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c CPU
			c.setFlag(flagN, tc.n)
			c.setFlag(flagZ, tc.z)
			c.setFlag(flagC, tc.cIn)
			c.setFlag(flagV, tc.v)
			if got := c.evalCondition(tc.cond); got != tc.want {
				t.Fatalf("evalCondition(%#x) = %v, want %v", tc.cond, got, tc.want)
			}
		})
	}
}
