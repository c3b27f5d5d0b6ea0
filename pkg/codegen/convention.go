package codegen

// ReturnRegister is where ordinary functions leave their result
const ReturnRegister = 2

// Convention describes how a callee hands back its result and whether the
// caller must save its live registers around the call
type Convention struct {
	Return  int
	NoSpill bool
}

// Conventions holds the routines that differ from the default. The platform
// routines leave caller registers untouched, so no Push/Pop is emitted for them
var Conventions = map[string]Convention{
	"input":    {Return: 3},
	"output":   {Return: ReturnRegister, NoSpill: true},
	"loadHD":   {Return: 4, NoSpill: true},
	"storeHD":  {Return: ReturnRegister, NoSpill: true},
	"HDtoIM":   {Return: ReturnRegister, NoSpill: true},
	"LCDwrite": {Return: ReturnRegister, NoSpill: true},
}

func ConventionFor(callee string) Convention {
	if c, ok := Conventions[callee]; ok {
		return c
	}
	return Convention{Return: ReturnRegister}
}
