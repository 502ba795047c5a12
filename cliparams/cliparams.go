// Package cliparams parses colorist's command line into a validated
// Params struct: github.com/spf13/pflag does the flag parsing (matching
// spec.md §6.1's exact short/long flag set), an optional YAML file
// supplies defaults pflag then overrides, and
// github.com/go-playground/validator/v10 struct tags enforce the range
// and enum constraints spec.md §6.1 describes in prose.
package cliparams

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"colorist.dev/colorist/colorerr"
)

// Action is one of the eight CLI verbs spec.md §6.1 names.
type Action string

const (
	ActionConvert   Action = "convert"
	ActionIdentify  Action = "identify"
	ActionGenerate  Action = "generate"
	ActionModify    Action = "modify"
	ActionCalc      Action = "calc"
	ActionReport    Action = "report"
	ActionHald      Action = "hald"
	ActionHighlight Action = "highlight"
)

// Params is the fully-resolved, validated set of CLI inputs every
// planner action consumes. Fields map directly to spec.md §6.1 flags;
// YAML tags let --config FILE populate the same struct as a defaults
// layer pflag then overrides.
type Params struct {
	Action Action   `yaml:"-"`
	Args   []string `yaml:"-"`

	AutoGrade bool   `yaml:"autograde" validate:"-"`
	BPC       int    `yaml:"bpc" validate:"omitempty,oneof=8 10 12 16"`
	Copyright string `yaml:"copyright"`
	Description string `yaml:"description"`
	Format    string `yaml:"format"`
	Gamma     string `yaml:"gamma"`
	Jobs      int    `yaml:"jobs" validate:"gte=0"`
	Luminance string `yaml:"luminance"`
	Primaries string `yaml:"primaries"`
	Quality   int    `yaml:"quality" validate:"gte=0,lte=100"`
	Rate      int    `yaml:"rate" validate:"gte=0"`
	YUV       string `yaml:"yuv" validate:"omitempty,oneof=auto 444 422 420 yv12"`
	QuantizerMin int `yaml:"quantizerMin"`
	QuantizerMax int `yaml:"quantizerMax"`
	TilingRows   int `yaml:"tilingRows"`
	TilingCols   int `yaml:"tilingCols"`
	ToneMap      string `yaml:"tonemap" validate:"omitempty"`
	ResizeW      int    `yaml:"-"`
	ResizeH      int    `yaml:"-"`
	ResizeFilter string `yaml:"-"`
	CropX, CropY, CropW, CropH int `yaml:"-"`
	CropSet bool `yaml:"-"`

	CompositeFile         string `yaml:"-"`
	CompositeGamma        float64 `yaml:"-"`
	CompositeToneMap      string  `yaml:"-"`
	CompositePremultiplied bool   `yaml:"-"`

	HaldFile   string `yaml:"-"`
	Stats      bool   `yaml:"stats"`
	StripTags  []string `yaml:"-"`

	ICCIn      string `yaml:"-"`
	ICCOut     string `yaml:"-"`
	NoProfile  bool   `yaml:"noprofile"`

	CMM        string `yaml:"cmm" validate:"omitempty,oneof=auto colorist lcms"`
	DefaultLuminance int `yaml:"deflum" validate:"gte=0"`
	HLGLuminance     int `yaml:"hlglum" validate:"gte=0"`
	FrameIndex       int `yaml:"frameindex" validate:"gte=0"`

	Verbose bool   `yaml:"verbose"`
	LogFile string `yaml:"logfile"`

	ConfigFile string `yaml:"-"`
}

var validate = validator.New()

// Parse parses argv (excluding the program name) into a validated
// Params. The first positional argument is the action verb; up to two
// more are file names (spec.md §6.1 "0-2 filenames interpreted per
// verb").
func Parse(argv []string) (*Params, error) {
	if len(argv) == 0 {
		return nil, colorerr.New(colorerr.Input, "cliparams.Parse", "missing action")
	}
	action := Action(argv[0])
	if !validAction(action) {
		return nil, colorerr.New(colorerr.Input, "cliparams.Parse", "unknown action: "+string(argv[0]))
	}

	fs := pflag.NewFlagSet(string(action), pflag.ContinueOnError)
	p := &Params{Action: action}

	fs.BoolVarP(&p.AutoGrade, "autograde", "a", false, "enable autograde")
	fs.IntVarP(&p.BPC, "bpc", "b", 0, "destination bits per channel")
	fs.StringVarP(&p.Copyright, "copyright", "c", "", "ICC copyright tag")
	fs.StringVarP(&p.Description, "description", "d", "", "ICC description tag")
	fs.StringVarP(&p.Format, "format", "f", "", "force output format")
	fs.StringVarP(&p.Gamma, "gamma", "g", "", "pq|hlg|s|source|<float>")
	fs.IntVarP(&p.Jobs, "jobs", "j", 0, "worker count (0 = all)")
	fs.StringVarP(&p.Luminance, "luminance", "l", "", "nits, s=source, u=unspecified")
	fs.StringVarP(&p.Primaries, "primaries", "p", "", "stock name or 8 comma-separated floats")
	fs.IntVarP(&p.Quality, "quality", "q", 0, "encode quality 0-100")
	fs.IntVarP(&p.Rate, "rate", "r", 0, "bit rate")
	fs.StringVar(&p.YUV, "yuv", "auto", "auto|444|422|420|yv12")
	var quantizer string
	fs.StringVar(&quantizer, "quantizer", "", "MIN,MAX")
	var tiling string
	fs.StringVar(&tiling, "tiling", "", "R,C")
	fs.StringVarP(&p.ToneMap, "tonemap", "t", "auto", "auto|on|off[,contrast=,clip=,speed=,power=]")
	var resize string
	fs.StringVar(&resize, "resize", "", "W,H[,filter]")
	var rect string
	fs.StringVarP(&rect, "rect", "z", "", "x,y,w,h")
	fs.StringVar(&rect, "crop", "", "x,y,w,h")
	fs.StringVar(&p.CompositeFile, "composite", "", "composite source image file")
	fs.Float64Var(&p.CompositeGamma, "composite-gamma", 2.2, "compositing gamma")
	fs.StringVar(&p.CompositeToneMap, "composite-tonemap", "auto", "auto|on|off")
	fs.BoolVar(&p.CompositePremultiplied, "composite-premultiplied", false, "treat composite source as premultiplied")
	fs.StringVar(&p.HaldFile, "hald", "", "HALD CLUT image file")
	fs.BoolVar(&p.Stats, "stats", false, "compute MSE/PSNR after write")
	var stripTags string
	fs.StringVarP(&stripTags, "striptags", "s", "", "comma-separated ICC tag names")
	fs.StringVarP(&p.ICCIn, "iccin", "i", "", "override source profile from file")
	fs.StringVarP(&p.ICCOut, "iccout", "o", "", "override destination profile from file")
	fs.BoolVarP(&p.NoProfile, "noprofile", "n", false, "strip color profile on write")
	fs.StringVar(&p.CMM, "cmm", "auto", "auto|colorist|lcms")
	fs.IntVar(&p.DefaultLuminance, "deflum", 0, "default nits for unspecified profiles")
	fs.IntVar(&p.HLGLuminance, "hlglum", 0, "HLG reference white nits")
	fs.IntVar(&p.FrameIndex, "frameindex", 0, "frame index for multi-frame containers")
	fs.BoolVarP(&p.Verbose, "verbose", "v", false, "verbose logging")
	fs.StringVar(&p.LogFile, "logfile", "", "rotate logs to this file")
	fs.StringVar(&p.ConfigFile, "config", "", "YAML file of flag defaults")

	// A first pass recovers --config before the real parse so YAML
	// defaults can be installed ahead of pflag's own defaults being
	// overridden by explicit flags.
	preScan := pflag.NewFlagSet("prescan", pflag.ContinueOnError)
	preScan.ParseErrorsWhitelist.UnknownFlags = true
	var cfgPath string
	preScan.StringVar(&cfgPath, "config", "", "")
	_ = preScan.Parse(argv[1:])
	if cfgPath != "" {
		if err := loadYAMLDefaults(cfgPath, p); err != nil {
			return nil, err
		}
	}

	if err := fs.Parse(argv[1:]); err != nil {
		return nil, colorerr.Wrap(colorerr.Input, "cliparams.Parse", err)
	}
	p.Args = fs.Args()

	if quantizer != "" {
		minV, maxV, err := parsePair(quantizer)
		if err != nil {
			return nil, colorerr.Wrap(colorerr.Input, "cliparams.Parse", err)
		}
		p.QuantizerMin, p.QuantizerMax = minV, maxV
	}
	if tiling != "" {
		r, c, err := parsePair(tiling)
		if err != nil {
			return nil, colorerr.Wrap(colorerr.Input, "cliparams.Parse", err)
		}
		p.TilingRows, p.TilingCols = r, c
	}
	if resize != "" {
		w, h, filter, err := parseResize(resize)
		if err != nil {
			return nil, err
		}
		p.ResizeW, p.ResizeH, p.ResizeFilter = w, h, filter
	}
	if rect != "" {
		x, y, w, h, err := parseRect(rect)
		if err != nil {
			return nil, err
		}
		p.CropX, p.CropY, p.CropW, p.CropH, p.CropSet = x, y, w, h, true
	}
	if stripTags != "" {
		p.StripTags = strings.Split(stripTags, ",")
	}

	if err := validate.Struct(p); err != nil {
		return nil, colorerr.Wrap(colorerr.Validation, "cliparams.Parse", err)
	}
	return p, nil
}

func validAction(a Action) bool {
	switch a {
	case ActionConvert, ActionIdentify, ActionGenerate, ActionModify, ActionCalc, ActionReport, ActionHald, ActionHighlight:
		return true
	default:
		return false
	}
}

func loadYAMLDefaults(path string, p *Params) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return colorerr.Wrap(colorerr.Input, "cliparams.loadYAMLDefaults", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return colorerr.Wrap(colorerr.Input, "cliparams.loadYAMLDefaults", err)
	}
	return nil
}

func parsePair(s string) (int, int, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, colorerr.New(colorerr.Input, "cliparams.parsePair", "expected A,B")
	}
	a, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, colorerr.New(colorerr.Input, "cliparams.parsePair", "expected two integers")
	}
	return a, b, nil
}

func parseResize(s string) (w, h int, filter string, err error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return 0, 0, "", colorerr.New(colorerr.Input, "cliparams.parseResize", "expected W,H[,filter]")
	}
	w, e1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, e2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if e1 != nil || e2 != nil {
		return 0, 0, "", colorerr.New(colorerr.Input, "cliparams.parseResize", "W and H must be integers")
	}
	if len(parts) == 3 {
		filter = strings.TrimSpace(parts[2])
	}
	return w, h, filter, nil
}

func parseRect(s string) (x, y, w, h int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, colorerr.New(colorerr.Input, "cliparams.parseRect", "expected x,y,w,h")
	}
	vals := make([]int, 4)
	for i, f := range parts {
		v, e := strconv.Atoi(strings.TrimSpace(f))
		if e != nil {
			return 0, 0, 0, 0, colorerr.New(colorerr.Input, "cliparams.parseRect", "rect components must be integers")
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
