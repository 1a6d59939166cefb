// Package dashboard filters action items and aggregates them into the KPI
// and chart series shown for a plan.
package dashboard

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"plano/internal"
)

// Any is the filter value that matches everything.
const Any = "Todos"

// OverdueLabel is the display status of unfinished items past their due date.
const OverdueLabel = "Em Atraso"

var monthAbbrev = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

type Filter struct {
	Department string
	Status     string
	Type       string
	Tag        string
	Priority   string
	Pillar     string
}

func matches(want, got string) bool {
	return want == "" || want == Any || want == got
}

func contains(want string, values []string) bool {
	if want == "" || want == Any {
		return true
	}
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// Match reports whether item passes every filter dimension.
func (f Filter) Match(item internal.ActionItem) bool {
	return contains(f.Department, item.Departments) &&
		matches(f.Status, string(item.Status)) &&
		matches(f.Type, string(item.Type)) &&
		contains(f.Tag, item.Tags) &&
		matches(f.Priority, string(item.Priority)) &&
		matches(f.Pillar, item.StrategicPillar)
}

func (f Filter) Apply(items []internal.ActionItem) []internal.ActionItem {
	out := make([]internal.ActionItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

type KPI struct {
	Total            int `json:"total"`
	Completed        int `json:"completed"`
	InProgress       int `json:"inProgress"`
	PercentCompleted int `json:"percentCompleted"`
}

// Count is one bar or slice of a chart.
type Count struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// TrendPoint is the number of completed items due up to and including Month.
type TrendPoint struct {
	Month      string `json:"month"`
	Label      string `json:"label"`
	Cumulative int    `json:"cumulative"`
}

type Options struct {
	Departments []string `json:"departments"`
	Tags        []string `json:"tags"`
	Pillars     []string `json:"pillars"`
}

type Summary struct {
	KPI          KPI          `json:"kpi"`
	ByStatus     []Count      `json:"byStatus"`
	ByPillar     []Count      `json:"byPillar"`
	ByDepartment []Count      `json:"byDepartment"`
	Trend        []TrendPoint `json:"trend"`
}

// DisplayStatus is the status label charts use: completed items keep their
// status, unfinished items due before today are overdue.
func DisplayStatus(item internal.ActionItem, today time.Time) string {
	if item.Status == internal.StatusConcluido {
		return string(item.Status)
	}
	if due, ok := parseDue(item.DueDate); ok && due.Before(truncateDay(today)) {
		return OverdueLabel
	}
	return string(item.Status)
}

// Summarize aggregates items, which are expected to be filtered already.
func Summarize(items []internal.ActionItem, today time.Time) Summary {
	s := Summary{
		ByStatus:     []Count{},
		ByPillar:     []Count{},
		ByDepartment: []Count{},
		Trend:        []TrendPoint{},
	}

	status := newCounter()
	pillar := newCounter()
	dept := newCounter()
	monthly := map[string]int{}

	for _, item := range items {
		s.KPI.Total++
		if item.Status == internal.StatusConcluido {
			s.KPI.Completed++
			if due, ok := parseDue(item.DueDate); ok {
				monthly[due.Format("2006-01")]++
			}
		}
		status.add(DisplayStatus(item, today))
		pillar.add(item.StrategicPillar)
		for _, d := range item.Departments {
			dept.add(d)
		}
	}
	s.KPI.InProgress = s.KPI.Total - s.KPI.Completed
	if s.KPI.Total > 0 {
		s.KPI.PercentCompleted = int(math.Round(float64(s.KPI.Completed) / float64(s.KPI.Total) * 100))
	}

	s.ByStatus = status.counts()
	s.ByPillar = pillar.counts()
	s.ByDepartment = dept.counts()
	sort.SliceStable(s.ByDepartment, func(i, j int) bool { return s.ByDepartment[i].Value > s.ByDepartment[j].Value })

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	cumulative := 0
	for _, m := range months {
		cumulative += monthly[m]
		s.Trend = append(s.Trend, TrendPoint{Month: m, Label: monthLabel(m), Cumulative: cumulative})
	}
	return s
}

// FilterOptions lists the distinct values present in items, each prefixed
// with Any and sorted with Portuguese collation.
func FilterOptions(items []internal.ActionItem) Options {
	depts := map[string]struct{}{}
	tags := map[string]struct{}{}
	pillars := map[string]struct{}{}
	for _, item := range items {
		for _, d := range item.Departments {
			depts[d] = struct{}{}
		}
		for _, t := range item.Tags {
			tags[t] = struct{}{}
		}
		pillars[item.StrategicPillar] = struct{}{}
	}
	return Options{
		Departments: sortedWithAny(depts),
		Tags:        sortedWithAny(tags),
		Pillars:     sortedWithAny(pillars),
	}
}

func sortedWithAny(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		if strings.TrimSpace(v) != "" {
			values = append(values, v)
		}
	}
	collate.New(language.BrazilianPortuguese).SortStrings(values)
	return append([]string{Any}, values...)
}

// counter keeps first-seen order so charts stay stable between runs.
type counter struct {
	order []string
	n     map[string]int
}

func newCounter() *counter {
	return &counter{n: map[string]int{}}
}

func (c *counter) add(name string) {
	if _, ok := c.n[name]; !ok {
		c.order = append(c.order, name)
	}
	c.n[name]++
}

func (c *counter) counts() []Count {
	out := make([]Count, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, Count{Name: name, Value: c.n[name]})
	}
	return out
}

func parseDue(value string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	return t, err == nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthLabel renders "2024-08" as "ago/24".
func monthLabel(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return monthAbbrev[t.Month()-1] + "/" + t.Format("06")
}
