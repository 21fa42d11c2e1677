package native

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shadergen/gpucore"
)

// ioVar is one user-defined input or output of an entry point.
type ioVar struct {
	Name     string
	Location int
	Type     string
}

// entryPoint is the interface of a WGSL entry point as seen by linking.
type entryPoint struct {
	Stage   gpucore.ShaderStage
	Name    string
	Inputs  []ioVar
	Outputs []ioVar
}

// input returns the input at loc.
func (e *entryPoint) input(loc int) (ioVar, bool) {
	for _, v := range e.Inputs {
		if v.Location == loc {
			return v, true
		}
	}
	return ioVar{}, false
}

// output returns the output at loc.
func (e *entryPoint) output(loc int) (ioVar, bool) {
	for _, v := range e.Outputs {
		if v.Location == loc {
			return v, true
		}
	}
	return ioVar{}, false
}

// compileModule runs the naga front end over WGSL source: parse, lower to
// IR and validate. The returned error text is the shader info log.
func compileModule(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validation failed: %w", &verrs[0])
	}
	return mod, nil
}

// irStage maps a pipeline stage to naga's.
func irStage(stage gpucore.ShaderStage) ir.ShaderStage {
	if stage == gpucore.StageFragment {
		return ir.StageFragment
	}
	return ir.StageVertex
}

// reflectEntry describes the first entry point for stage in mod: its
// @location-qualified arguments and results. Struct-typed arguments and
// results are expanded to their members; builtins are skipped. It returns
// nil when mod declares no entry point for stage.
func reflectEntry(mod *ir.Module, stage gpucore.ShaderStage) *entryPoint {
	want := irStage(stage)
	for i := range mod.EntryPoints {
		ep := &mod.EntryPoints[i]
		if ep.Stage != want {
			continue
		}
		out := &entryPoint{Stage: stage, Name: ep.Name}
		for _, arg := range ep.Function.Arguments {
			out.Inputs = append(out.Inputs, ioVars(mod, arg.Name, arg.Type, arg.Binding)...)
		}
		if res := ep.Function.Result; res != nil {
			out.Outputs = ioVars(mod, "", res.Type, res.Binding)
		}
		return out
	}
	return nil
}

// ioVars returns the interface variables contributed by one value.
func ioVars(mod *ir.Module, name string, ty ir.TypeHandle, b *ir.Binding) []ioVar {
	if b != nil {
		if lb, ok := (*b).(ir.LocationBinding); ok {
			return []ioVar{{Name: name, Location: int(lb.Location), Type: typeName(mod, ty)}}
		}
		return nil
	}
	if int(ty) >= len(mod.Types) {
		return nil
	}
	st, ok := mod.Types[ty].Inner.(ir.StructType)
	if !ok {
		return nil
	}
	var vars []ioVar
	for _, m := range st.Members {
		if m.Binding == nil {
			continue
		}
		if lb, ok := (*m.Binding).(ir.LocationBinding); ok {
			vars = append(vars, ioVar{Name: m.Name, Location: int(lb.Location), Type: typeName(mod, m.Type)})
		}
	}
	return vars
}

// typeName renders the WGSL spelling of scalar and vector types.
func typeName(mod *ir.Module, ty ir.TypeHandle) string {
	if int(ty) >= len(mod.Types) {
		return ""
	}
	switch t := mod.Types[ty].Inner.(type) {
	case ir.ScalarType:
		return scalarName(t)
	case ir.VectorType:
		return fmt.Sprintf("vec%d<%s>", t.Size, scalarName(t.Scalar))
	default:
		if n := mod.Types[ty].Name; n != "" {
			return n
		}
		return fmt.Sprintf("%T", t)
	}
}

func scalarName(s ir.ScalarType) string {
	bits := int(s.Width) * 8
	switch s.Kind {
	case ir.ScalarFloat:
		return fmt.Sprintf("f%d", bits)
	case ir.ScalarSint:
		return fmt.Sprintf("i%d", bits)
	case ir.ScalarUint:
		return fmt.Sprintf("u%d", bits)
	case ir.ScalarBool:
		return "bool"
	default:
		return fmt.Sprintf("scalar(%d)", s.Kind)
	}
}
