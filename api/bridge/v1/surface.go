package bridgev1

// Field names of the surface-info and new-window response structs.
const (
	FieldHandle    = "handle"
	FieldTitle     = "title"
	FieldFrame     = "frame"
	FieldWidth     = "width"
	FieldHeight    = "height"
	FieldMinimized = "minimized"
	FieldMaximized = "maximized"
	FieldFocused   = "focused"
	FieldPrimary   = "primary"
	FieldRules     = "rules"
)

// Frame values carried in FieldFrame.
const (
	FrameNative = "native"
	FrameCustom = "custom"
)

// Pong is the ping reply.
const Pong = "pong"
