package multiblink

// This file contains the program sets that are used when no table file is
// supplied.  They need eight output channels.

import (
	"time"

	"github.com/TeamNorCal/multiblink/model"
)

// DefaultChannels is the number of outputs the built in tables address
const DefaultChannels = 8

func hold(c model.Color, d time.Duration) model.Set {
	return model.Set{Color: c, Hold: d}
}

// DefaultTables returns fresh copies of the built in program sets
func DefaultTables() (tables *Tables) {
	const ms = time.Millisecond

	// Independent blinkers, each running at its own rate
	blink := model.ProgramSet{Name: "blink"}
	for ch, period := range []time.Duration{100, 250, 375, 500, 625, 750, 875, 1000} {
		blink.Programs = append(blink.Programs, model.MustProgram(ch,
			hold(model.White, period*ms),
			hold(model.Black, period*ms),
		))
	}

	// Bursts of flashes separated by a pause, and a pair of channels that
	// take turns at driving the same output
	burst := model.ProgramSet{
		Name: "burst",
		Programs: []model.Program{
			model.MustProgram(0,
				hold(model.Blue, 100*ms),
				hold(model.Red, 50*ms),
				model.Loop{Target: 0, Count: 4},
				hold(model.Black, 600*ms),
			),
			model.MustProgram(1,
				hold(model.White, 25*ms),
				hold(model.Black, 100*ms),
				model.Loop{Target: 0, Count: 3},
				hold(model.Black, 1000*ms),
			),
			model.MustProgram(2,
				hold(model.Green, 500*ms),
				hold(model.Black, 500*ms),
			),
			// A goto with a delay waits without writing, leaving the
			// output to the other half of the pair
			model.MustProgram(3,
				hold(model.Yellow, 500*ms),
				model.Goto{Target: 0, Delay: 500 * ms},
			),
			model.MustProgram(3,
				model.Goto{Target: 1, Delay: 500 * ms},
				hold(model.Magenta, 500*ms),
				model.Goto{Target: 0},
			),
		},
	}

	// PWM style breathing on grey levels
	fades := model.ProgramSet{
		Name: "fades",
		Programs: []model.Program{
			model.MustProgram(0,
				model.Fade{From: model.Grey(0), To: model.Grey(255), Period: 1000 * ms},
				model.Fade{From: model.Grey(255), To: model.Grey(0), Period: 1000 * ms},
			),
			model.MustProgram(1,
				model.Fade{From: model.Grey(0), To: model.Grey(255), Period: 250 * ms},
				model.Fade{From: model.Grey(255), To: model.Grey(0), Period: 250 * ms},
				model.Loop{Target: 0, Count: 3},
				hold(model.Black, 1500*ms),
			),
			model.MustProgram(2,
				model.Fade{From: model.Red, To: model.Blue, Period: 2000 * ms},
				model.Fade{From: model.Blue, To: model.Green, Period: 2000 * ms},
				model.Fade{From: model.Green, To: model.Red, Period: 2000 * ms},
			),
			model.MustProgram(3,
				hold(model.White, 50*ms),
				model.Fade{From: model.White, To: model.Black, Period: 450 * ms},
				model.Loop{Target: 0, Count: 5},
				model.Stop{},
			),
		},
	}

	return &Tables{
		Channels: DefaultChannels,
		Sets:     []model.ProgramSet{blink, burst, fades},
	}
}
