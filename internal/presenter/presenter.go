// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter renders analysis results into the JSON line a status bar displays.
package presenter

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"
	"github.com/wneessen/go-moonphase"

	"github.com/wneessen/rainparade/internal/analysis"
	"github.com/wneessen/rainparade/internal/config"
	"github.com/wneessen/rainparade/internal/gauge"
	"github.com/wneessen/rainparade/internal/resolve"
	"github.com/wneessen/rainparade/internal/risk"
	"github.com/wneessen/rainparade/internal/selection"
)

const (
	OutputClass   = "rainparade"
	FallbackClass = "fallback"
	BusyClass     = "busy"
)

// Output is the JSON object written per update.
type Output struct {
	Text       string   `json:"text"`
	Alt        string   `json:"alt"`
	Tooltip    string   `json:"tooltip"`
	Classes    []string `json:"class"`
	Percentage int      `json:"percentage"`
}

// ConditionView wraps a risk condition with presentation-related fields.
type ConditionView struct {
	risk.Condition

	Icon string
	Ring gauge.Ring
	Bar  string
}

type TemplateContext struct {
	Selection   selection.Selection
	Date        time.Time
	Summary     string
	Conditions  [3]ConditionView
	Rain        ConditionView
	Heat        ConditionView
	Wind        ConditionView
	Highest     risk.Tier
	Suitability risk.Suitability

	// Prediction values, only set if HasPrediction is true.
	HasPrediction bool
	Temperature   float64
	Humidity      float64
	WindSpeed     float64

	Fallback    bool
	Busy        bool
	RequestID   string
	GeneratedAt time.Time

	SunriseTime   time.Time
	SunsetTime    time.Time
	MoonPhase     string
	MoonPhaseIcon string
}

type Presenter struct {
	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
	text      *template.Template
	tooltip   *template.Template
	radius    float64
	barWidth  int
}

func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	if conf == nil {
		return nil, errors.New("config is required")
	}
	if loc == nil {
		return nil, errors.New("localizer is required")
	}

	collection := humanize.MustNew(humanize.WithLocale(de.New()))
	pres := &Presenter{
		localizer: loc,
		humanizer: collection.CreateHumanizer(loc.Language()),
		radius:    conf.Templates.GaugeRadius,
		barWidth:  conf.Templates.BarWidth,
	}
	if pres.radius <= 0 {
		pres.radius = gauge.DefaultRadius
	}

	var err error
	pres.text, err = template.New("text").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	pres.tooltip, err = template.New("tooltip").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Tooltip)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tooltip template: %w", err)
	}
	return pres, nil
}

// BuildContext prepares the template context of an analysis result.
func (p *Presenter) BuildContext(result analysis.Result, busy bool) TemplateContext {
	sel := result.Selection
	ctx := TemplateContext{
		Selection:   sel,
		Summary:     result.SummaryText,
		Highest:     risk.Highest(result.Conditions),
		Suitability: risk.SuitabilityFor(result.Conditions[risk.Rain].RawValue),
		Fallback:    result.Fallback,
		Busy:        busy,
		RequestID:   result.RequestID,
		GeneratedAt: result.GeneratedAt,
	}
	for i, cond := range result.Conditions {
		ctx.Conditions[i] = p.viewFromCondition(cond)
	}
	ctx.Rain, ctx.Heat, ctx.Wind = ctx.Conditions[risk.Rain], ctx.Conditions[risk.Heat], ctx.Conditions[risk.Wind]

	if result.Raw != nil {
		ctx.HasPrediction = true
		ctx.Temperature = result.Raw.Prediction.Temperature
		ctx.Humidity = result.Raw.Prediction.Humidity
		ctx.WindSpeed = result.Raw.Prediction.WindSpeed
	}

	date, err := time.Parse(resolve.ISODate, sel.Date)
	if err != nil {
		return ctx
	}
	ctx.Date = date
	ctx.SunriseTime, ctx.SunsetTime = sunrise.SunriseSunset(sel.Lat, sel.Lon, date.Year(), date.Month(), date.Day())
	moon := moonphase.New(date.Add(time.Hour * 12))
	ctx.MoonPhase = moon.PhaseName()
	ctx.MoonPhaseIcon = MoonPhaseIcon[ctx.MoonPhase]
	return ctx
}

func (p *Presenter) viewFromCondition(cond risk.Condition) ConditionView {
	ring := gauge.Geometry(cond, p.radius)
	return ConditionView{
		Condition: cond,
		Icon:      ConditionIcon[cond.Kind][cond.Tier],
		Ring:      ring,
		Bar:       ring.Bar(p.barWidth),
	}
}

// Render executes the templates and assigns the output classes.
func (p *Presenter) Render(ctx TemplateContext) (Output, error) {
	textBuf := bytes.NewBuffer(nil)
	if err := p.text.Execute(textBuf, ctx); err != nil {
		return Output{}, fmt.Errorf("failed to render text template: %w", err)
	}
	tooltipBuf := bytes.NewBuffer(nil)
	if err := p.tooltip.Execute(tooltipBuf, ctx); err != nil {
		return Output{}, fmt.Errorf("failed to render tooltip template: %w", err)
	}

	classes := []string{OutputClass, TierClass[ctx.Highest]}
	if ctx.Fallback {
		classes = append(classes, FallbackClass)
	}
	if ctx.Busy {
		classes = append(classes, BusyClass)
	}

	percentage := 0
	for _, cond := range ctx.Conditions {
		percentage = max(percentage, cond.RiskScore)
	}
	return Output{
		Text:       textBuf.String(),
		Alt:        ctx.Highest.String(),
		Tooltip:    tooltipBuf.String(),
		Classes:    classes,
		Percentage: percentage,
	}, nil
}
