package interp

import (
	"fmt"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/capability"
	"github.com/prose-lang/prose/pkg/runtime"
)

// GUI programs run against the UI capability. Windows and widgets appear
// to Prose code as plain objects whose callable properties (run,
// set_text, get_text) close over the capability handles.

func (i *Interpreter) execCreateWindow(s *ast.CreateWindowStmt, env *runtime.Environment) error {
	title, err := i.evalText(s.Title, env)
	if err != nil {
		return err
	}
	width, height := 400, 500
	if s.Width != nil {
		if width, err = i.evalInt(s.Width, env); err != nil {
			return err
		}
	}
	if s.Height != nil {
		if height, err = i.evalInt(s.Height, env); err != nil {
			return err
		}
	}
	win, err := i.caps.UI.CreateWindow(title, width, height)
	if err != nil {
		return runtime.Errorf(s.Line, "Line %d: %v", s.Line, err)
	}
	inst := i.newWindowObject(win)
	env.Assign(s.VarName, inst)
	return nil
}

func (i *Interpreter) newWindowObject(win capability.Window) *runtime.ObjectValue {
	props := runtime.NewDict()
	props.Set("_type", runtime.TextValue{Val: "window"})
	props.Set("_row", runtime.NumberValue{Val: 0})
	inst := &runtime.ObjectValue{ClassName: "Window", Properties: props}
	props.Set("run", native("run", 0, func([]runtime.Value) (runtime.Value, error) {
		if err := win.Run(); err != nil {
			return nil, err
		}
		return runtime.Nothing, nil
	}))
	props.Set("set_title", native("set_title", 1, func(args []runtime.Value) (runtime.Value, error) {
		if err := win.SetTitle(runtime.Display(args[0])); err != nil {
			return nil, err
		}
		return runtime.Nothing, nil
	}))
	i.windows[inst] = win
	return inst
}

func (i *Interpreter) execAddWidget(s *ast.AddWidgetStmt, env *runtime.Environment) error {
	winVal, err := i.evaluate(s.Window, env)
	if err != nil {
		return err
	}
	winObj, ok := winVal.(*runtime.ObjectValue)
	if !ok {
		return runtime.Errorf(s.Line, "Line %d: Expected a Window object.", s.Line)
	}
	win, ok := i.windows[winObj]
	if !ok {
		return runtime.Errorf(s.Line, "Line %d: Expected a Window object.", s.Line)
	}

	switch s.WidgetType {
	case "button", "label", "input":
	default:
		return runtime.Errorf(s.Line, "Line %d: Unknown widget type '%s'.", s.Line, s.WidgetType)
	}

	label := ""
	if s.Label != nil {
		if label, err = i.evalText(s.Label, env); err != nil {
			return err
		}
	}
	col, colspan := 0, 1
	if s.Col != nil {
		if col, err = i.evalInt(s.Col, env); err != nil {
			return err
		}
	}
	if s.Colspan != nil {
		if colspan, err = i.evalInt(s.Colspan, env); err != nil {
			return err
		}
	}
	autoRow := 0
	if rowVal, ok := winObj.Properties.Get("_row"); ok {
		if num, ok := rowVal.(runtime.NumberValue); ok {
			autoRow = int(num.Val)
		}
	}
	row := autoRow
	if s.Row != nil {
		if row, err = i.evalInt(s.Row, env); err != nil {
			return err
		}
	}

	var onPress func()
	if s.Callback != nil {
		cbVal, err := i.evaluate(s.Callback, env)
		if err != nil {
			return err
		}
		if fn, ok := cbVal.(*runtime.FunctionValue); ok {
			onPress = func() {
				closure := fn.Closure
				if closure == nil {
					closure = i.Global
				}
				err := i.execute(fn.Body, runtime.NewEnvironment(closure))
				if err != nil {
					if _, ok := err.(runtime.ReturnSignal); !ok {
						i.caps.Output.Print(err.Error())
					}
				}
			}
		}
	}

	name := s.VarName
	if name == "" {
		i.nextWidget++
		name = fmt.Sprintf("widget_%d", i.nextWidget)
	}
	if err := win.AddWidget(s.WidgetType, name, label, row, col, colspan, onPress); err != nil {
		return runtime.Errorf(s.Line, "Line %d: %v", s.Line, err)
	}

	inst := i.newWidgetObject(win, name, s.WidgetType)
	if s.Row == nil {
		winObj.Properties.Set("_row", runtime.NumberValue{Val: float64(autoRow + 1)})
	}
	if s.VarName != "" {
		env.Assign(s.VarName, inst)
	}
	return nil
}

func (i *Interpreter) newWidgetObject(win capability.Window, name, kind string) *runtime.ObjectValue {
	props := runtime.NewDict()
	inst := &runtime.ObjectValue{ClassName: titleCase(kind), Properties: props}
	props.Set("set_text", native("set_text", 1, func(args []runtime.Value) (runtime.Value, error) {
		if err := win.SetText(name, runtime.Display(args[0])); err != nil {
			return nil, err
		}
		return runtime.Nothing, nil
	}))
	props.Set("get_text", native("get_text", 0, func([]runtime.Value) (runtime.Value, error) {
		text, err := win.Text(name)
		if err != nil {
			return nil, err
		}
		return runtime.TextValue{Val: text}, nil
	}))
	if kind == "input" {
		props.Set("append_text", native("append_text", 1, func(args []runtime.Value) (runtime.Value, error) {
			cur, err := win.Text(name)
			if err != nil {
				return nil, err
			}
			if err := win.SetText(name, cur+runtime.Display(args[0])); err != nil {
				return nil, err
			}
			return runtime.Nothing, nil
		}))
		props.Set("clear", native("clear", 0, func([]runtime.Value) (runtime.Value, error) {
			if err := win.SetText(name, ""); err != nil {
				return nil, err
			}
			return runtime.Nothing, nil
		}))
	}
	i.widgets[inst] = widgetRef{win: win, name: name}
	return inst
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (i *Interpreter) execRunWindow(s *ast.RunWindowStmt, env *runtime.Environment) error {
	winVal, err := i.evaluate(s.Window, env)
	if err != nil {
		return err
	}
	winObj, ok := winVal.(*runtime.ObjectValue)
	if !ok {
		return runtime.Errorf(s.Line, "Line %d: Expected a Window object to run.", s.Line)
	}
	win, ok := i.windows[winObj]
	if !ok {
		return runtime.Errorf(s.Line, "Line %d: Expected a Window object to run.", s.Line)
	}
	if err := win.Run(); err != nil {
		return runtime.Errorf(s.Line, "Line %d: %v", s.Line, err)
	}
	return nil
}

func (i *Interpreter) execSetText(s *ast.SetTextStmt, env *runtime.Environment) error {
	widgetVal, err := i.evaluate(s.Widget, env)
	if err != nil {
		return err
	}
	value, err := i.evalText(s.Value, env)
	if err != nil {
		return err
	}
	widgetObj, ok := widgetVal.(*runtime.ObjectValue)
	if !ok {
		return runtime.Errorf(s.Line, "Line %d: Can only set text on a label or input widget.", s.Line)
	}
	ref, ok := i.widgets[widgetObj]
	if !ok {
		return runtime.Errorf(s.Line, "Line %d: Can only set text on a label or input widget.", s.Line)
	}
	if err := ref.win.SetText(ref.name, value); err != nil {
		return runtime.Errorf(s.Line, "Line %d: %v", s.Line, err)
	}
	return nil
}

func (i *Interpreter) execWhen(s *ast.WhenStmt, env *runtime.Environment) error {
	body := s.Body
	handler := func() {
		err := i.execute(body, runtime.NewEnvironment(env))
		if err != nil {
			if _, ok := err.(runtime.ReturnSignal); !ok {
				i.caps.Output.Print(err.Error())
			}
		}
	}

	if s.Event == "close" {
		// Bind to whichever window is in scope.
		var bound error
		env.EachLocal(func(_ string, v runtime.Value) {
			if obj, ok := v.(*runtime.ObjectValue); ok && obj.ClassName == "Window" {
				if win, ok := i.windows[obj]; ok && bound == nil {
					bound = win.Bind("close", "", handler)
				}
			}
		})
		return bound
	}

	if s.Widget == nil {
		return nil
	}
	targetVal, err := i.evaluate(s.Widget, env)
	if err != nil {
		return err
	}
	obj, ok := targetVal.(*runtime.ObjectValue)
	if !ok {
		return nil
	}
	if ref, ok := i.widgets[obj]; ok {
		return ref.win.Bind(s.Event, ref.name, handler)
	}
	if win, ok := i.windows[obj]; ok {
		return win.Bind(s.Event, "", handler)
	}
	return nil
}

//-----------------------------------------------------------------------------
// "Import gui." module surface
//-----------------------------------------------------------------------------

func (i *Interpreter) importGUI(s *ast.ImportStmt, env *runtime.Environment) error {
	bindings := runtime.NewEnvironment(nil)

	windowArg := func(args []runtime.Value, n int) (*runtime.ObjectValue, capability.Window, error) {
		obj, ok := args[n].(*runtime.ObjectValue)
		if !ok {
			return nil, nil, fmt.Errorf("expected a Window object")
		}
		win, ok := i.windows[obj]
		if !ok {
			return nil, nil, fmt.Errorf("expected a Window object")
		}
		return obj, win, nil
	}

	bindings.SetLocal("create_window", variadicNative("create_window", func(args []runtime.Value) (runtime.Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("create_window needs a title")
		}
		width, height := 400, 500
		if len(args) > 1 {
			w, err := argNumber(args, 1)
			if err != nil {
				return nil, err
			}
			width = int(w)
		}
		if len(args) > 2 {
			h, err := argNumber(args, 2)
			if err != nil {
				return nil, err
			}
			height = int(h)
		}
		win, err := i.caps.UI.CreateWindow(runtime.Display(args[0]), width, height)
		if err != nil {
			return nil, err
		}
		return i.newWindowObject(win), nil
	}))

	addWidget := func(kind string) func(args []runtime.Value) (runtime.Value, error) {
		return func(args []runtime.Value) (runtime.Value, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("create_%s needs a parent window", kind)
			}
			winObj, win, err := windowArg(args, 0)
			if err != nil {
				return nil, err
			}
			text := ""
			if kind != "input" && len(args) > 1 {
				text = runtime.Display(args[1])
			}
			var onPress func()
			if kind == "button" && len(args) > 2 {
				cb := args[2]
				onPress = func() {
					if _, err := i.applyCallable(cb, nil, 0); err != nil {
						i.caps.Output.Print(err.Error())
					}
				}
			}
			row := 0
			if rowVal, ok := winObj.Properties.Get("_row"); ok {
				if num, ok := rowVal.(runtime.NumberValue); ok {
					row = int(num.Val)
				}
			}
			i.nextWidget++
			name := fmt.Sprintf("widget_%d", i.nextWidget)
			if err := win.AddWidget(kind, name, text, row, 0, 1, onPress); err != nil {
				return nil, err
			}
			winObj.Properties.Set("_row", runtime.NumberValue{Val: float64(row + 1)})
			return i.newWidgetObject(win, name, kind), nil
		}
	}
	bindings.SetLocal("create_label", variadicNative("create_label", addWidget("label")))
	bindings.SetLocal("create_input", variadicNative("create_input", addWidget("input")))
	bindings.SetLocal("create_button", variadicNative("create_button", addWidget("button")))
	bindings.SetLocal("configure_grid", variadicNative("configure_grid", func([]runtime.Value) (runtime.Value, error) {
		// Layout weights belong to the UI implementation.
		return runtime.Nothing, nil
	}))

	if s.Alias != "" {
		env.Assign(s.Alias, &runtime.ModuleValue{Name: s.Alias, Bindings: bindings})
		return nil
	}
	for _, name := range s.Names {
		val, ok := bindings.Lookup(name)
		if !ok {
			return runtime.Errorf(s.Line, "Line %d: Cannot import '%s' from gui library.", s.Line, name)
		}
		env.Assign(name, val)
	}
	return nil
}
