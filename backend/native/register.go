package native

import (
	"github.com/gogpu/shadergen/backend"
	"github.com/gogpu/shadergen/render"
)

func init() {
	backend.Register(backend.Vulkan, func(target *render.PixmapTarget) (backend.Context, error) {
		return wrap(Open(target))
	})
	backend.Register(backend.Noop, func(target *render.PixmapTarget) (backend.Context, error) {
		return wrap(OpenNoop(target))
	})
}

// wrap avoids returning a typed nil Context.
func wrap(c *Context, err error) (backend.Context, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

var _ backend.Context = (*Context)(nil)
