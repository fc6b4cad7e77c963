package indicator

import "github.com/newthinker/zhanfa/internal/core"

// ResampleWeekly aggregates daily bars into ISO calendar weeks (Monday to
// Sunday): open is the first open, high the max, low the min, close the last
// close, volume and turnover the sums. The weekly bar is dated on its last
// trading day and its PctChange is measured against the previous weekly
// close. Partial weeks, including the current one, become ordinary bars.
func ResampleWeekly(s core.Series) core.Series {
	out := core.Series{Code: s.Code}
	if len(s.Bars) == 0 {
		return out
	}

	var (
		cur      core.PriceBar
		curYear  int
		curWeek  int
		started  bool
		prevLast = NaN
	)

	flush := func() {
		if Valid(prevLast) && prevLast != 0 {
			cur.PctChange = (cur.Close - prevLast) / prevLast * 100
		} else {
			cur.PctChange = NaN
		}
		prevLast = cur.Close
		out.Bars = append(out.Bars, cur)
	}

	for _, b := range s.Bars {
		year, week := b.Date.ISOWeek()
		if !started || year != curYear || week != curWeek {
			if started {
				flush()
			}
			cur = b
			curYear, curWeek = year, week
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Date = b.Date
		cur.Volume += b.Volume
		cur.Turnover += b.Turnover
	}
	flush()

	return out
}
