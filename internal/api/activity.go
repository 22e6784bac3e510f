package api

import "fmt"

// Series is one dataset of a chart. Values are index-aligned with the
// chart labels.
type Series struct {
	Name   string
	Values []int
}

// Chart is the shape shared by both activity charts.
type Chart interface {
	ChartLabels() []string
	ChartSeries() []Series
}

type KodiakDatasets struct {
	Approved []int `json:"approved"`
	Merged   []int `json:"merged"`
	Updated  []int `json:"updated"`
}

type KodiakChart struct {
	Labels   []string       `json:"labels"`
	Datasets KodiakDatasets `json:"datasets"`
}

func (c KodiakChart) ChartLabels() []string { return c.Labels }

func (c KodiakChart) ChartSeries() []Series {
	return []Series{
		{Name: "approved", Values: c.Datasets.Approved},
		{Name: "merged", Values: c.Datasets.Merged},
		{Name: "updated", Values: c.Datasets.Updated},
	}
}

type PullRequestDatasets struct {
	Opened []int `json:"opened"`
	Merged []int `json:"merged"`
	Closed []int `json:"closed"`
}

type PullRequestChart struct {
	Labels   []string            `json:"labels"`
	Datasets PullRequestDatasets `json:"datasets"`
}

func (c PullRequestChart) ChartLabels() []string { return c.Labels }

func (c PullRequestChart) ChartSeries() []Series {
	return []Series{
		{Name: "opened", Values: c.Datasets.Opened},
		{Name: "merged", Values: c.Datasets.Merged},
		{Name: "closed", Values: c.Datasets.Closed},
	}
}

type Activity struct {
	KodiakActivity      KodiakChart      `json:"kodiakActivity"`
	PullRequestActivity PullRequestChart `json:"pullRequestActivity"`
}

func (a Activity) validate() error {
	if err := validateChart("kodiakActivity", a.KodiakActivity); err != nil {
		return err
	}
	return validateChart("pullRequestActivity", a.PullRequestActivity)
}

// validateChart rejects a series whose length disagrees with the labels. An
// absent series is not a shape error.
func validateChart(name string, c Chart) error {
	labels := len(c.ChartLabels())
	for _, s := range c.ChartSeries() {
		if s.Values != nil && len(s.Values) != labels {
			return fmt.Errorf("%s.datasets.%s has %d values for %d labels", name, s.Name, len(s.Values), labels)
		}
	}
	return nil
}
