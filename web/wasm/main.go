//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/echolab/dsp/core"
	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/wavio"
	"github.com/cwbudde/echolab/worker/wire"
)

var funcs []js.Func

func main() {
	api := js.Global().Get("Object").New()

	// create([sampleRate]) returns an independent processor instance.
	api.Set("create", export(&funcs, func(args []js.Value) any {
		var opts []core.ProcessorOption
		if len(args) > 0 && args[0].Type() == js.TypeNumber {
			opts = append(opts, core.WithSampleRate(args[0].Float()))
		}
		return newInstance(engine.New(opts...))
	}))

	// toWav(samples, sampleRate) encodes mono 16-bit PCM.
	api.Set("toWav", export(&funcs, func(args []js.Value) any {
		if len(args) < 2 {
			return js.Null()
		}
		data, err := wavio.EncodeBytes(toGo(args[0]), args[1].Int())
		if err != nil {
			return err.Error()
		}
		arr := js.Global().Get("Uint8Array").New(len(data))
		js.CopyBytesToJS(arr, data)
		return arr
	}))

	js.Global().Set("EchoLab", api)
	select {}
}

// newInstance wraps eng in a JS object. Its functions are released by
// dispose; the instance must not be used afterwards.
func newInstance(eng *engine.Engine) js.Value {
	var own []js.Func
	obj := js.Global().Get("Object").New()

	obj.Set("setParameters", export(&own, func(args []js.Value) any {
		if len(args) < 1 {
			return js.Null()
		}
		u, err := toUpdate(args[0])
		if err != nil {
			return err.Error()
		}
		eng.Configure(u)
		return js.Null()
	}))

	obj.Set("addEcho", export(&own, func(args []js.Value) any {
		if len(args) < 1 {
			return emptyFloat32Array()
		}
		in := toGo(args[0])
		if len(args) > 1 && args[1].Type() == js.TypeNumber {
			return toJS(eng.SynthesizeEchoAt(in, args[1].Float()))
		}
		return toJS(eng.SynthesizeEcho(in))
	}))

	obj.Set("removeEcho", export(&own, func(args []js.Value) any {
		if len(args) < 1 {
			return emptyFloat32Array()
		}
		out, err := eng.CancelEcho(toGo(args[0]))
		if err != nil {
			return err.Error()
		}
		return toJS(out)
	}))

	obj.Set("processNoiseAndEcho", export(&own, func(args []js.Value) any {
		if len(args) < 1 {
			return emptyFloat32Array()
		}
		out, err := eng.DenoiseAndCancelEcho(toGo(args[0]))
		if err != nil {
			return err.Error()
		}
		return toJS(out)
	}))

	obj.Set("denoise", export(&own, func(args []js.Value) any {
		if len(args) < 1 {
			return emptyFloat32Array()
		}
		return toJS(eng.Denoise(toGo(args[0])))
	}))

	obj.Set("getParameters", export(&own, func([]js.Value) any {
		p := eng.Params()
		out := js.Global().Get("Object").New()
		out.Set("kalmanGain", p.KalmanGain)
		out.Set("nlmsStepSize", p.NLMSStepSize)
		out.Set("filterLength", p.FilterLength)
		out.Set("echoDelay", p.EchoDelay)
		out.Set("echoIntensity", p.EchoIntensity)
		return out
	}))

	var dispose js.Func
	dispose = js.FuncOf(func(js.Value, []js.Value) any {
		for _, f := range own {
			f.Release()
		}
		own = nil
		dispose.Release()
		return js.Null()
	})
	obj.Set("dispose", dispose)
	return obj
}

// toUpdate reads the numeric fields present on a parameters object.
func toUpdate(v js.Value) (engine.Update, error) {
	var u engine.Update
	num := func(name string) (float64, bool) {
		f := v.Get(name)
		if f.Type() != js.TypeNumber {
			return 0, false
		}
		return f.Float(), true
	}
	if f, ok := num("kalmanGain"); ok {
		u.KalmanGain = engine.Ptr(f)
	}
	if f, ok := num("nlmsStepSize"); ok {
		u.NLMSStepSize = engine.Ptr(f)
	}
	if f, ok := num("filterLength"); ok {
		n, err := wire.FilterLength(f)
		if err != nil {
			return engine.Update{}, err
		}
		u.FilterLength = engine.Ptr(n)
	}
	if f, ok := num("echoDelay"); ok {
		u.EchoDelay = engine.Ptr(f)
	}
	if f, ok := num("echoIntensity"); ok {
		u.EchoIntensity = engine.Ptr(f)
	}
	return u, nil
}

func toGo(arr js.Value) []float32 {
	n := arr.Length()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(arr.Index(i).Float())
	}
	return out
}

func toJS(buf []float32) js.Value {
	arr := js.Global().Get("Float32Array").New(len(buf))
	for i := range buf {
		arr.SetIndex(i, buf[i])
	}
	return arr
}

func emptyFloat32Array() js.Value {
	return js.Global().Get("Float32Array").New(0)
}

func export(dst *[]js.Func, fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	*dst = append(*dst, f)
	return f
}
