package export

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/almarsh/edtrader/internal/model"
	"github.com/almarsh/edtrader/internal/route"
)

// TradeCSVHeader is the shared header of every trade output file.
const TradeCSVHeader = "Commodity,Buy System,Buy Station,Buy Distance,Buy Price,Supply,Buy Age,Sell System,Sell Station,Sell Distance,Sell Price,Demand,Sell Age,Jump Distance,ReturnTrip,Profit,TotalProfit,+Cargo $Mil"

// timestampFormat renders the trailing UTC timestamp line.
const timestampFormat = "2006-01-02 15:04:05"

// number formats a numeric field with two decimal places.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ageHours is the listing age in hours at report time.
func ageHours(l *model.Listing, now time.Time) float64 {
	return now.Sub(l.CollectedTime()).Hours()
}

// legFields renders the columns shared by every row shape: buy side, sell
// side and jump distance.
func legFields(leg model.RouteLeg, now time.Time) string {
	return fmt.Sprintf("%s,%s,%s,%s,%s,%d,%s,%s,%s,%s,%s,%d,%s,%s",
		leg.Buy.Commodity.Name,
		leg.Buy.System.Name,
		leg.Buy.Station.Name,
		number(float64(leg.Buy.Station.DistanceToStar)),
		number(leg.Buy.BuyPrice),
		leg.Buy.Supply,
		number(ageHours(leg.Buy, now)),
		leg.Sell.System.Name,
		leg.Sell.Station.Name,
		number(float64(leg.Sell.Station.DistanceToStar)),
		number(leg.Sell.SellPrice),
		leg.Sell.Demand,
		number(ageHours(leg.Sell, now)),
		number(leg.JumpDistance()),
	)
}

// WriteTrades writes single-hop rows: the return-trip column names the best
// return commodity and its margin, TotalProfit includes the return leg, and
// the cargo column is the full-hold round-trip value in millions.
func WriteTrades(path string, rows []route.TradeRow, cargoSpace int64, now time.Time) error {
	return writeFile(path, now, func(w *bufio.Writer) {
		for _, row := range rows {
			returnCol := "N/A"
			if row.Return != nil {
				returnCol = fmt.Sprintf("%s: $%s", row.Return.Buy.Commodity.Name, number(row.Return.Profit))
			}
			total := row.TotalProfit()
			fmt.Fprintf(w, "%s,%s,%s,%s,%s\n",
				legFields(row.Leg, now),
				returnCol,
				number(row.Leg.Profit),
				number(total),
				number(total*float64(cargoSpace)/1e6),
			)
		}
	})
}

// WriteTrip writes a multi-hop chain; TotalProfit accumulates leg by leg.
func WriteTrip(path string, trip model.Trip, cargoSpace int64, now time.Time) error {
	return writeFile(path, now, func(w *bufio.Writer) {
		var running float64
		for _, leg := range trip.Legs {
			running += leg.Profit
			fmt.Fprintf(w, "%s,,%s,%s,%s\n",
				legFields(leg, now),
				number(leg.Profit),
				number(running),
				number(running*float64(cargoSpace)/1e6),
			)
		}
	})
}

// WriteLegs writes global-search pairings: no return trip, margin reported
// in the TotalProfit column.
func WriteLegs(path string, legs []model.RouteLeg, cargoSpace int64, now time.Time) error {
	return writeFile(path, now, func(w *bufio.Writer) {
		for _, leg := range legs {
			fmt.Fprintf(w, "%s,,,%s,%s\n",
				legFields(leg, now),
				number(leg.Profit),
				number(leg.Profit*float64(cargoSpace)/1e6),
			)
		}
	})
}

// WriteStats writes the data volume counters for one rebuild.
func WriteStats(path string, systems, stations, commodities, listings int, now time.Time) error {
	const header = "Systems,Stations,Commodities,All Station Commodities,Timestamp"

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stats file: %w", err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, header)
	fmt.Fprintf(w, "%d,%d,%d,%d,%s\n", systems, stations, commodities, listings,
		now.UTC().Format(timestampFormat))
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write stats file: %w", err)
	}
	return f.Close()
}

// writeFile writes header, body and timestamp footer.
func writeFile(path string, now time.Time, body func(w *bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, TradeCSVHeader)
	body(w)
	fmt.Fprintln(w, now.UTC().Format(timestampFormat))

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	return f.Close()
}
