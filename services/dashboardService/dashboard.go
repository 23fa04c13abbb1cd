package dashboardService

import (
	"parlayTracker/models"
	"parlayTracker/services/calendarService"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Totals struct {
	Wins     int             `json:"wins"`
	Losses   int             `json:"losses"`
	TotalPnl decimal.Decimal `json:"totalPnl"`
}

// DayBucket summarises the slips placed on one calendar day.
type DayBucket struct {
	Date   string          `json:"date"`
	Profit decimal.Decimal `json:"profit"`
	Wins   int             `json:"wins"`
	Losses int             `json:"losses"`
	Count  int             `json:"count"`
}

func AggregateTotals(slips []models.Slip) Totals {
	totals := Totals{TotalPnl: decimal.Zero}
	for _, slip := range slips {
		switch slip.Status {
		case models.SlipWin:
			totals.Wins++
		case models.SlipLoss:
			totals.Losses++
		default:
			continue
		}
		totals.TotalPnl = totals.TotalPnl.Add(slip.Profit())
	}
	return totals
}

// DailyBuckets groups every slip, open or settled, by the day it was placed.
func DailyBuckets(slips []models.Slip, cal *calendarService.Calendar) map[string]*DayBucket {
	buckets := make(map[string]*DayBucket)
	for _, slip := range slips {
		day := cal.DayKey(slip.CreatedAt)
		bucket, exists := buckets[day]
		if !exists {
			bucket = &DayBucket{Date: day, Profit: decimal.Zero}
			buckets[day] = bucket
		}

		bucket.Count++
		bucket.Profit = bucket.Profit.Add(slip.Profit())
		switch slip.Status {
		case models.SlipWin:
			bucket.Wins++
		case models.SlipLoss:
			bucket.Losses++
		}
	}
	return buckets
}

// MonthGrid lays out a month in Sunday-first weeks. Cells before the 1st and after
// the last day are nil.
func MonthGrid(year int, month time.Month) [][]*int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	leading := int(first.Weekday())

	cells := make([]*int, 0, 42)
	for i := 0; i < leading; i++ {
		cells = append(cells, nil)
	}
	for d := 1; d <= daysInMonth; d++ {
		day := d
		cells = append(cells, &day)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	rows := make([][]*int, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		rows = append(rows, cells[i:i+7])
	}
	return rows
}

// PlacedToday sums the stake of every slip placed today, whatever its status.
func PlacedToday(slips []models.Slip, now time.Time, cal *calendarService.Calendar) decimal.Decimal {
	today := cal.Today(now)
	total := decimal.Zero
	for _, slip := range slips {
		if cal.DayKey(slip.CreatedAt) == today {
			total = total.Add(slip.Amount)
		}
	}
	return total
}

type Cell struct {
	Day    int        `json:"day"`
	Date   string     `json:"date"`
	Today  bool       `json:"today"`
	Bucket *DayBucket `json:"bucket,omitempty"`
}

// Month is the calendar dashboard for one month.
type Month struct {
	Year        int             `json:"year"`
	Month       time.Month      `json:"month"`
	Rows        [][]*Cell       `json:"rows"`
	Totals      Totals          `json:"totals"`
	MonthPnl    decimal.Decimal `json:"monthPnl"`
	PlacedToday decimal.Decimal `json:"placedToday"`
	SlipCount   int             `json:"slipCount"`
}

func BuildMonth(slips []models.Slip, year int, month time.Month, now time.Time, cal *calendarService.Calendar) Month {
	buckets := DailyBuckets(slips, cal)
	today := cal.Today(now)
	monthPnl := decimal.Zero

	grid := MonthGrid(year, month)
	rows := make([][]*Cell, 0, len(grid))
	for _, week := range grid {
		row := make([]*Cell, len(week))
		for i, day := range week {
			if day == nil {
				continue
			}
			date := time.Date(year, month, *day, 0, 0, 0, 0, time.UTC).Format(calendarService.DayLayout)
			cell := &Cell{
				Day:   *day,
				Date:  date,
				Today: date == today,
			}
			if bucket, ok := buckets[date]; ok {
				cell.Bucket = bucket
				monthPnl = monthPnl.Add(bucket.Profit)
			}
			row[i] = cell
		}
		rows = append(rows, row)
	}

	return Month{
		Year:        year,
		Month:       month,
		Rows:        rows,
		Totals:      AggregateTotals(slips),
		MonthPnl:    monthPnl,
		PlacedToday: PlacedToday(slips, now, cal),
		SlipCount:   len(slips),
	}
}

type TeamCount struct {
	Team  models.Team `json:"team"`
	Count int         `json:"count"`
}

// TeamCounts counts picks per team across slips. Every known team starts at zero;
// picks on unknown names are still counted. A non-nil scheduled set keeps only
// the teams playing that day.
func TeamCounts(slips []models.Slip, teams []models.Team, scheduled map[string]bool) []TeamCount {
	counts := make(map[string]*TeamCount, len(teams))
	for _, team := range teams {
		counts[team.FullName] = &TeamCount{Team: team}
	}

	for _, slip := range slips {
		for _, pick := range slip.Picks {
			if pick.Pick == "" {
				continue
			}
			if tc, ok := counts[pick.Pick]; ok {
				tc.Count++
				continue
			}
			counts[pick.Pick] = &TeamCount{Team: models.Team{FullName: pick.Pick}, Count: 1}
		}
	}

	out := make([]TeamCount, 0, len(counts))
	for name, tc := range counts {
		if scheduled != nil && !scheduled[name] {
			continue
		}
		out = append(out, *tc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Team.FullName < out[j].Team.FullName
	})
	return out
}
