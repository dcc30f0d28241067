package businessflow

import (
	"sort"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/shopspring/decimal"
)

// classCache memoises ClassifyTerminal for the lifetime of one report
type classCache map[string]models.CurrencyClass

func (c classCache) classOf(terminalID string) models.CurrencyClass {
	if class, ok := c[terminalID]; ok {
		return class
	}
	class := models.ClassifyTerminal(terminalID)
	c[terminalID] = class
	return class
}

// currencyBuckets accumulates value and volume per currency class.
// Terminals of no class are ignored.
type currencyBuckets struct {
	valueZiG  decimal.Decimal
	volumeZiG int64
	valueUSD  decimal.Decimal
	volumeUSD int64
}

func (b *currencyBuckets) add(class models.CurrencyClass, value float64, volume int64) {
	switch class {
	case models.CurrencyZiG:
		b.valueZiG = b.valueZiG.Add(decimal.NewFromFloat(value))
		b.volumeZiG += volume
	case models.CurrencyUSD:
		b.valueUSD = b.valueUSD.Add(decimal.NewFromFloat(value))
		b.volumeUSD += volume
	}
}

// computeGroupTotals sums a group's transactions per currency class and works
// out the share of each class's terminals that sold anything
func computeGroupTotals(clients []*models.Client, txs []*models.Transaction) dto.GroupTotals {
	classes := classCache{}

	terminals := map[models.CurrencyClass]int{}
	for _, c := range clients {
		terminals[classes.classOf(c.TerminalID)]++
	}

	var buckets currencyBuckets
	active := map[models.CurrencyClass]map[string]struct{}{
		models.CurrencyZiG: {},
		models.CurrencyUSD: {},
	}
	for _, t := range txs {
		class := classes.classOf(t.TerminalID)
		buckets.add(class, t.Value, t.Volume)
		if t.Value > 0 {
			if set, ok := active[class]; ok {
				set[t.TerminalID] = struct{}{}
			}
		}
	}

	return dto.GroupTotals{
		TotalValueZiG:    buckets.valueZiG.InexactFloat64(),
		TotalVolumeZiG:   buckets.volumeZiG,
		TotalValueUSD:    buckets.valueUSD.InexactFloat64(),
		TotalVolumeUSD:   buckets.volumeUSD,
		ActivityRatioZiG: activityRatio(len(active[models.CurrencyZiG]), terminals[models.CurrencyZiG]),
		ActivityRatioUSD: activityRatio(len(active[models.CurrencyUSD]), terminals[models.CurrencyUSD]),
	}
}

func activityRatio(active, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(active) / float64(total)
}

// buildValueVolumeMatrix lays out one row per client terminal and one column
// per calendar day that has at least one transaction
func buildValueVolumeMatrix(clients []*models.Client, txs []*models.Transaction) ([]string, []dto.MatrixRow) {
	days := distinctDays(txs)
	column := make(map[time.Time]int, len(days))
	dates := make([]string, len(days))
	for i, d := range days {
		column[d] = i
		dates[i] = utils.FormatDate(d)
	}

	type cells struct {
		values  []decimal.Decimal
		volumes []int64
	}
	grid := make(map[string]*cells, len(clients))
	for _, c := range clients {
		grid[c.TerminalID] = &cells{
			values:  make([]decimal.Decimal, len(days)),
			volumes: make([]int64, len(days)),
		}
	}

	for _, t := range txs {
		row, ok := grid[t.TerminalID]
		if !ok {
			continue
		}
		i := column[utils.StartOfDay(t.Date)]
		row.values[i] = row.values[i].Add(decimal.NewFromFloat(t.Value))
		row.volumes[i] += t.Volume
	}

	rows := make([]dto.MatrixRow, 0, len(clients))
	for _, c := range clients {
		g := grid[c.TerminalID]
		values := make([]float64, len(days))
		for i, v := range g.values {
			values[i] = v.InexactFloat64()
		}
		rows = append(rows, dto.MatrixRow{
			TerminalID: c.TerminalID,
			Values:     values,
			Volumes:    g.volumes,
		})
	}
	return dates, rows
}

func distinctDays(txs []*models.Transaction) []time.Time {
	seen := map[time.Time]struct{}{}
	days := make([]time.Time, 0)
	for _, t := range txs {
		d := utils.StartOfDay(t.Date)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// buildDailySummary buckets transactions per calendar day, oldest day first
func buildDailySummary(txs []*models.Transaction) []dto.DailySummaryRow {
	classes := classCache{}
	byDay := map[time.Time]*currencyBuckets{}
	for _, t := range txs {
		d := utils.StartOfDay(t.Date)
		b, ok := byDay[d]
		if !ok {
			b = &currencyBuckets{}
			byDay[d] = b
		}
		b.add(classes.classOf(t.TerminalID), t.Value, t.Volume)
	}

	rows := make([]dto.DailySummaryRow, 0, len(byDay))
	for _, d := range distinctDays(txs) {
		b := byDay[d]
		rows = append(rows, dto.DailySummaryRow{
			Date:        utils.FormatDate(d),
			ValueInZiG:  b.valueZiG.InexactFloat64(),
			VolumeInZiG: b.volumeZiG,
			ValueInUSD:  b.valueUSD.InexactFloat64(),
			VolumeInUSD: b.volumeUSD,
		})
	}
	return rows
}

// buildCumulativeByTerminal totals every client terminal over the whole range,
// keeping terminals without activity
func buildCumulativeByTerminal(clients []*models.Client, txs []*models.Transaction) []dto.CumulativeTerminalRow {
	type totals struct {
		value  decimal.Decimal
		volume int64
	}
	sums := make(map[string]*totals, len(clients))
	for _, c := range clients {
		sums[c.TerminalID] = &totals{}
	}
	for _, t := range txs {
		if s, ok := sums[t.TerminalID]; ok {
			s.value = s.value.Add(decimal.NewFromFloat(t.Value))
			s.volume += t.Volume
		}
	}

	rows := make([]dto.CumulativeTerminalRow, 0, len(clients))
	for _, c := range clients {
		s := sums[c.TerminalID]
		rows = append(rows, dto.CumulativeTerminalRow{
			MerchantName: c.MerchantName,
			TerminalID:   c.TerminalID,
			TotalValue:   s.value.InexactFloat64(),
			TotalVolume:  s.volume,
		})
	}
	return rows
}

// buildCumulativeByBranch totals transactions per branch and currency class.
// Every branch with clients gets a row, in order of first appearance.
func buildCumulativeByBranch(clients []*models.Client, txs []*models.Transaction) []dto.CumulativeBranchRow {
	type branchTotals struct {
		terminals int
		buckets   currencyBuckets
	}

	branchOf := make(map[string]string, len(clients))
	byBranch := map[string]*branchTotals{}
	order := make([]string, 0)
	for _, c := range clients {
		branchOf[c.TerminalID] = c.Branch
		b, ok := byBranch[c.Branch]
		if !ok {
			b = &branchTotals{}
			byBranch[c.Branch] = b
			order = append(order, c.Branch)
		}
		b.terminals++
	}

	classes := classCache{}
	for _, t := range txs {
		branch, ok := branchOf[t.TerminalID]
		if !ok {
			continue
		}
		byBranch[branch].buckets.add(classes.classOf(t.TerminalID), t.Value, t.Volume)
	}

	rows := make([]dto.CumulativeBranchRow, 0, len(order))
	for _, branch := range order {
		b := byBranch[branch]
		rows = append(rows, dto.CumulativeBranchRow{
			NumTerminals: b.terminals,
			Branch:       branch,
			ValueInZiG:   b.buckets.valueZiG.InexactFloat64(),
			VolumeInZiG:  b.buckets.volumeZiG,
			ValueInUSD:   b.buckets.valueUSD.InexactFloat64(),
			VolumeInUSD:  b.buckets.volumeUSD,
		})
	}
	return rows
}

// groupSummary totals volume and value of a group regardless of currency class
func groupSummary(txs []*models.Transaction) (int64, float64) {
	var volume int64
	value := decimal.Zero
	for _, t := range txs {
		volume += t.Volume
		value = value.Add(decimal.NewFromFloat(t.Value))
	}
	return volume, value.InexactFloat64()
}
