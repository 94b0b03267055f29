package app

import (
	"google.golang.org/protobuf/types/known/structpb"

	bridgev1 "shellhost/api/bridge/v1"
)

// Surface mirrors a host surface snapshot.
type Surface struct {
	Handle    uint64
	Title     string
	Frame     string
	Width     int
	Height    int
	Minimized bool
	Maximized bool
	Focused   bool
	Primary   bool
	Rules     []string
}

// CustomFrame reports whether the surface draws its own title bar.
func (s Surface) CustomFrame() bool {
	return s.Frame == bridgev1.FrameCustom
}

// HasRule reports whether the named presentation rule is injected.
func (s Surface) HasRule(name string) bool {
	for _, r := range s.Rules {
		if r == name {
			return true
		}
	}
	return false
}

func surfaceFromStruct(st *structpb.Struct) Surface {
	f := st.GetFields()
	num := func(k string) float64 { return f[k].GetNumberValue() }
	flag := func(k string) bool { return f[k].GetBoolValue() }

	s := Surface{
		Handle:    uint64(num(bridgev1.FieldHandle)),
		Title:     f[bridgev1.FieldTitle].GetStringValue(),
		Frame:     f[bridgev1.FieldFrame].GetStringValue(),
		Width:     int(num(bridgev1.FieldWidth)),
		Height:    int(num(bridgev1.FieldHeight)),
		Minimized: flag(bridgev1.FieldMinimized),
		Maximized: flag(bridgev1.FieldMaximized),
		Focused:   flag(bridgev1.FieldFocused),
		Primary:   flag(bridgev1.FieldPrimary),
	}
	for _, v := range f[bridgev1.FieldRules].GetListValue().GetValues() {
		s.Rules = append(s.Rules, v.GetStringValue())
	}
	return s
}
