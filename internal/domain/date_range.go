package domain

import "time"

const DateLayout = "2006-01-02"

type DateRange struct {
	Start time.Time
	End   time.Time
}

func (d DateRange) StartParam() string {
	return d.Start.Format(DateLayout)
}

func (d DateRange) EndParam() string {
	return d.End.Format(DateLayout)
}
