package sigui

import "fmt"

// Kinds passed to Adaptor.Create by the constructors below.
const (
	KindVStack = "vstack"
	KindHStack = "hstack"
	KindZStack = "zstack"
	KindLabel  = "label"
	KindButton = "button"
	KindToggle = "toggle"
)

// VStack lays its children out vertically.
func VStack(children ...*View) *View {
	return NewView(KindVStack).Add(children...)
}

// HStack lays its children out horizontally.
func HStack(children ...*View) *View {
	return NewView(KindHStack).Add(children...)
}

// ZStack layers its children on top of each other.
func ZStack(children ...*View) *View {
	return NewView(KindZStack).Add(children...)
}

// Spacing sets the gap between the children of a stack.
func (v *View) Spacing(px int) *View {
	return v.Set("spacing", px)
}

// BackgroundColor and ForegroundColor take 0xRRGGBB values.
func (v *View) BackgroundColor(rgb uint32) *View {
	return v.Set("bg_color", rgb)
}

func (v *View) ForegroundColor(rgb uint32) *View {
	return v.Set("text_color", rgb)
}

// Label shows static text.
func Label(text string) *View {
	return NewView(KindLabel).Set("text", text)
}

// LabelOf shows the current value of obs, formatted with %v.
func LabelOf[T comparable](obs *Observable[T]) *View {
	text := Map(obs, func(v T) string { return fmt.Sprint(v) })

	v := Bind(NewView(KindLabel), "text", text)
	v.OnDestroy(text.Dispose)

	return v
}

// Button shows title and calls onClick when pressed.
func Button(title string, onClick func()) *View {
	return NewView(KindButton).
		Set("text", title).
		On("click", onClick)
}

// Toggle shows on as a switch. Flipping the switch flips on, and setting on
// from any goroutine moves the switch.
func Toggle(title string, on *Observable[bool]) *View {
	v := NewView(KindToggle).Set("text", title)

	return Bind(v, "checked", on).On("toggled", func() {
		on.Update(func(b bool) bool { return !b })
	})
}
