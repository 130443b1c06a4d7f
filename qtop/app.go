package qtop

import (
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/gdamore/tcell"
)

const (
	xMargin = 2
	yMargin = 1
)

// App shows the ranking full-screen and refreshes it periodically.
type App struct {
	top    *Top
	scr    tcell.Screen
	quit   chan bool
	update chan bool
	config Config
}

func NewApp(top *Top, scr tcell.Screen, config Config) *App {
	return &App{
		top:    top,
		scr:    scr,
		quit:   make(chan bool),
		update: make(chan bool),
		config: config,
	}
}

func (app *App) Start() error {
	go app.dispatch()

	if err := app.top.Update(); err != nil {
		return err
	}
	app.scr.Clear()
	app.draw()

	tick := time.NewTicker(app.config.Interval)
	defer tick.Stop()

loop:
	for {
		select {
		case <-app.quit:
			break loop

		case <-app.update:
			app.scr.Clear()
			app.draw()

		case <-tick.C:
			if err := app.top.Update(); err != nil {
				return err
			}
			app.scr.Clear()
			app.draw()
		}
	}

	return nil
}

func (app *App) Quit() {
	app.quit <- true
}

func (app *App) dispatch() {
	for {
		ev := app.scr.PollEvent()
		if ev == nil {
			break
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyCtrlC:
				app.quit <- true

			case tcell.KeyCtrlL:
				app.scr.Sync()

			case tcell.KeyRune:
				switch ev.Rune() {
				case 'q', 'Q':
					app.quit <- true
				}
			}

		case *tcell.EventResize:
			app.update <- true
		}
	}
}

func (app *App) draw() {
	sum := app.top.Current()
	if sum == nil {
		return
	}

	y := 0
	y = app.drawStatus(y, sum) + yMargin
	app.drawOwners(y, sum.Report.Top(app.config.Top))

	app.scr.Show()
}

func (app *App) drawStatus(y int, sum *Snapshot) int {
	scr := app.scr
	w, _ := scr.Size()

	now := sum.Time.Format(time.Stamp)
	printStr(scr, w-len(now)-xMargin, y, now, tcell.StyleDefault)

	stat := fmt.Sprintf(
		"%d users, %d jobs counted / %d rejected",
		len(sum.Report.Owners),
		sum.Report.Accepted,
		sum.Report.Rejected,
	)
	printStr(scr, xMargin, y, stat, tcell.StyleDefault)

	return y + 1
}

func (app *App) drawOwners(y int, owners []OwnerSummary) int {
	y = app.drawOwnerHeader(y)

	me, _ := user.Current()

	for _, owner := range owners {
		y = app.drawOwner(y, owner, me)
	}

	return y
}

func (app *App) drawOwnerHeader(y int) int {
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen)

	scr := app.scr
	w, _ := scr.Size()

	x := 0
	x += printStr(scr, x, y, "  ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%-12s", "USER"), style)
	x += printStr(scr, x, y, " ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%6s", "JOBS"), style)
	x += printStr(scr, x, y, " ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%6s", "CPU"), style)
	x += printStr(scr, x, y, " ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%8s", "MEM"), style)
	x += printStr(scr, x, y, " ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%7s", "SCORE"), style)

	if x < w {
		x += printStr(scr, x, y, strings.Repeat(" ", w-x), style)
	}

	return y + 1
}

func (app *App) drawOwner(y int, owner OwnerSummary, me *user.User) int {
	style := tcell.StyleDefault
	styleUser := style.Foreground(tcell.ColorTeal)

	if me == nil || owner.Owner != me.Username {
		styleUser = style.Foreground(tcell.ColorGray)
	}

	scr := app.scr

	x := xMargin
	x += printStr(scr, x, y, fmt.Sprintf("%-12s", owner.Owner), styleUser)
	x += printStr(scr, x, y, " ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%6d", owner.Jobs), style)
	x += printStr(scr, x, y, " ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%6d", owner.CPU), style)
	x += printStr(scr, x, y, " ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%8s", formatGigabytes(owner.Mem)), style)
	x += printStr(scr, x, y, " ", style)
	x += printStr(scr, x, y, fmt.Sprintf("%7.1f", owner.Score), style.Foreground(tcell.ColorOlive))

	return y + 1
}

func printStr(scr tcell.Screen, x, y int, s string, style tcell.Style) int {
	for i, c := range s {
		scr.SetContent(x+i, y, c, nil, style)
	}
	return len(s)
}
