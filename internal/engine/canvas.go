//go:build js && wasm

package engine

import (
	"fmt"
	"math"
	"syscall/js"

	"Sketch3D/internal/config"
	"Sketch3D/internal/gpu"
	"Sketch3D/internal/gpu/webgl"
	"Sketch3D/internal/logger"

	"go.uber.org/zap"
)

// Canvas is a browser canvas element driven by requestAnimationFrame.
type Canvas struct {
	el    js.Value
	ctx   *webgl.Context
	ratio float64
	log   *zap.Logger
	done  chan struct{}
}

// OpenCanvas binds the canvas with the given element id, creating and
// appending one to the body when it does not exist.
func OpenCanvas(id string, cfg config.Config, log *zap.Logger) (*Canvas, error) {
	if log == nil {
		log = logger.Log
	}
	doc := js.Global().Get("document")
	el := doc.Call("getElementById", id)
	if el.IsNull() {
		el = doc.Call("createElement", "canvas")
		el.Set("id", id)
		el.Get("style").Set("width", fmt.Sprintf("%dpx", cfg.Width))
		el.Get("style").Set("height", fmt.Sprintf("%dpx", cfg.Height))
		doc.Get("body").Call("appendChild", el)
	}
	doc.Set("title", cfg.Title)

	ratio := float64(cfg.PixelRatio)
	if ratio <= 0 {
		ratio = js.Global().Get("devicePixelRatio").Float()
	}
	c := &Canvas{el: el, ratio: ratio, log: log.Named("canvas"), done: make(chan struct{})}
	c.fit()

	ctx, err := webgl.New(el)
	if err != nil {
		return nil, err
	}
	c.ctx = ctx
	return c, nil
}

// fit sizes the backing store to the displayed size times the pixel ratio.
func (c *Canvas) fit() {
	w := int(math.Round(c.el.Get("clientWidth").Float() * c.ratio))
	h := int(math.Round(c.el.Get("clientHeight").Float() * c.ratio))
	if w <= 0 || h <= 0 {
		return
	}
	if c.el.Get("width").Int() != w || c.el.Get("height").Int() != h {
		c.el.Set("width", w)
		c.el.Set("height", h)
	}
}

func (c *Canvas) Context() gpu.Context { return c.ctx }

func (c *Canvas) Size() (int, int) {
	c.fit()
	return c.el.Get("width").Int(), c.el.Get("height").Int()
}

// Run schedules frames with requestAnimationFrame and blocks until frame
// returns false or Close is called.
func (c *Canvas) Run(frame func(now float64) bool) {
	var f js.Func
	f = js.FuncOf(func(this js.Value, args []js.Value) any {
		select {
		case <-c.done:
			return nil
		default:
		}
		if !frame(args[0].Float()) {
			c.Close()
			return nil
		}
		js.Global().Call("requestAnimationFrame", f)
		return nil
	})
	defer f.Release()
	js.Global().Call("requestAnimationFrame", f)
	<-c.done
}

func (c *Canvas) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
