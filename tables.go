package multiblink

// This file contains the loader for program tables written in YAML.  Times
// are given in milliseconds, colors as names or #rrggbb.  A typical table
// looks like the following
//
//   channels: 2
//   sets:
//     - name: police
//       programs:
//         - channel: 0
//           steps:
//             - set: {color: blue, hold: 100}
//             - set: {color: red, hold: 50}
//             - loop: {target: 0, count: 4}
//             - fade: {from: black, to: white, period: 600}
//
// The on, off, fade_on and fade_off steps are monochrome shorthands, the fade
// variants taking PWM levels 0 to 255 as from and to.

import (
	"os"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"gopkg.in/yaml.v2"

	"github.com/TeamNorCal/multiblink/model"
)

type yamlHold struct {
	Hold uint `yaml:"hold"`
}

type yamlSet struct {
	Color string `yaml:"color"`
	Hold  uint   `yaml:"hold"`
}

type yamlFade struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Period uint   `yaml:"period"`
}

type yamlLevelFade struct {
	From   uint8 `yaml:"from"`
	To     uint8 `yaml:"to"`
	Period uint  `yaml:"period"`
}

type yamlLoop struct {
	Target int  `yaml:"target"`
	Count  uint `yaml:"count"`
	Delay  uint `yaml:"delay"`
}

type yamlGoto struct {
	Target int  `yaml:"target"`
	Delay  uint `yaml:"delay"`
}

type yamlStep struct {
	Set     *yamlSet       `yaml:"set,omitempty"`
	On      *yamlHold      `yaml:"on,omitempty"`
	Off     *yamlHold      `yaml:"off,omitempty"`
	Fade    *yamlFade      `yaml:"fade,omitempty"`
	FadeOn  *yamlLevelFade `yaml:"fade_on,omitempty"`
	FadeOff *yamlLevelFade `yaml:"fade_off,omitempty"`
	Loop    *yamlLoop      `yaml:"loop,omitempty"`
	Goto    *yamlGoto      `yaml:"goto,omitempty"`
	Stop    *struct{}      `yaml:"stop,omitempty"`
	Nop     *struct{}      `yaml:"nop,omitempty"`
}

type yamlProgram struct {
	Channel int        `yaml:"channel"`
	Steps   []yamlStep `yaml:"steps"`
}

type yamlProgramSet struct {
	Name     string        `yaml:"name"`
	Programs []yamlProgram `yaml:"programs"`
}

type yamlTables struct {
	Channels int              `yaml:"channels"`
	Sets     []yamlProgramSet `yaml:"sets"`
}

// Tables is the complete configuration of program sets for an output with a
// known number of channels
type Tables struct {
	Channels int
	Sets     []model.ProgramSet
}

func ms(v uint) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (step *yamlStep) instruction() (inst model.Instruction, err errors.Error) {
	found := 0
	if step.Set != nil {
		found++
		c, err := model.ParseColor(step.Set.Color)
		if err != nil {
			return nil, err
		}
		inst = model.Set{Color: c, Hold: ms(step.Set.Hold)}
	}
	if step.On != nil {
		found++
		inst = model.Set{Color: model.White, Hold: ms(step.On.Hold)}
	}
	if step.Off != nil {
		found++
		inst = model.Set{Color: model.Black, Hold: ms(step.Off.Hold)}
	}
	if step.Fade != nil {
		found++
		from, err := model.ParseColor(step.Fade.From)
		if err != nil {
			return nil, err
		}
		to, err := model.ParseColor(step.Fade.To)
		if err != nil {
			return nil, err
		}
		inst = model.Fade{From: from, To: to, Period: ms(step.Fade.Period)}
	}
	if step.FadeOn != nil {
		found++
		inst = model.Fade{From: model.Grey(step.FadeOn.From), To: model.Grey(step.FadeOn.To), Period: ms(step.FadeOn.Period)}
	}
	if step.FadeOff != nil {
		found++
		inst = model.Fade{From: model.Grey(step.FadeOff.From), To: model.Grey(step.FadeOff.To), Period: ms(step.FadeOff.Period)}
	}
	if step.Loop != nil {
		found++
		inst = model.Loop{Target: step.Loop.Target, Count: step.Loop.Count, Delay: ms(step.Loop.Delay)}
	}
	if step.Goto != nil {
		found++
		inst = model.Goto{Target: step.Goto.Target, Delay: ms(step.Goto.Delay)}
	}
	if step.Stop != nil {
		found++
		inst = model.Stop{}
	}
	if step.Nop != nil {
		found++
		inst = model.Nop{}
	}

	switch found {
	case 0:
		return nil, errors.New("step has no instruction").With("stack", stack.Trace().TrimRuntime())
	case 1:
		return inst, nil
	default:
		return nil, errors.New("step has more than one instruction").With("count", found).With("stack", stack.Trace().TrimRuntime())
	}
}

// ParseTables decodes and validates a YAML program table
func ParseTables(data []byte) (tables *Tables, err errors.Error) {
	raw := &yamlTables{}
	if errGo := yaml.UnmarshalStrict(data, raw); errGo != nil {
		return nil, errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	if raw.Channels <= 0 {
		return nil, errors.New("channels must be positive").With("channels", raw.Channels).With("stack", stack.Trace().TrimRuntime())
	}
	if len(raw.Sets) == 0 {
		return nil, errors.New("no program sets were defined").With("stack", stack.Trace().TrimRuntime())
	}

	tables = &Tables{
		Channels: raw.Channels,
		Sets:     make([]model.ProgramSet, 0, len(raw.Sets)),
	}

	for setIdx, rawSet := range raw.Sets {
		set := model.ProgramSet{
			Name:     rawSet.Name,
			Programs: make([]model.Program, 0, len(rawSet.Programs)),
		}
		for progIdx, rawProg := range rawSet.Programs {
			insts := make([]model.Instruction, 0, len(rawProg.Steps))
			for pc, step := range rawProg.Steps {
				inst, err := step.instruction()
				if err != nil {
					return nil, err.With("set", setIdx).With("program", progIdx).With("pc", pc)
				}
				insts = append(insts, inst)
			}
			prog, err := model.NewProgram(rawProg.Channel, insts...)
			if err != nil {
				return nil, err.With("set", setIdx).With("program", progIdx)
			}
			set.Programs = append(set.Programs, prog)
		}
		if err = set.Validate(tables.Channels); err != nil {
			return nil, err.With("set_index", setIdx)
		}
		tables.Sets = append(tables.Sets, set)
	}
	return tables, nil
}

// LoadTables reads a YAML program table from a file
func LoadTables(fn string) (tables *Tables, err errors.Error) {
	data, errGo := os.ReadFile(fn)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	if tables, err = ParseTables(data); err != nil {
		return nil, err.With("file", fn)
	}
	logger.Debug("program tables loaded", "file", fn, "sets", len(tables.Sets), "channels", tables.Channels)
	return tables, nil
}
