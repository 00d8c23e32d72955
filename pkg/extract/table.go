package extract

import (
	"fmt"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

// Options tunes the extractor built by ForSchema.
type Options struct {
	// Select filters delay rows; required for the delay schema.
	Select *Selector

	// Mode and BinWidth shape the delay distribution.
	Mode     DistributionMode
	BinWidth float64

	// Band adds min/max series to occupancy and energy charts.
	Band bool
}

const minutesLabel = "Simulation time (minutes)"

// HasBand reports whether schema carries min/max columns for a band.
func HasBand(schema string) bool {
	return schema == parser.Occupancy.Name || schema == parser.Energy.Name
}

// ForSchema returns the extractor for a built-in schema.
func ForSchema(schema string, opts Options) (Extractor, error) {
	switch schema {
	case parser.Occupancy.Name:
		ys := []YField{{Field: "avgOccupancy", Label: "Average occupancy"}}
		if opts.Band {
			ys = append(ys,
				YField{Field: "min", Label: "Minimum"},
				YField{Field: "max", Label: "Maximum"})
		}
		return &SeriesExtractor{
			Title:   "Buffer occupancy",
			XField:  parser.FieldSimTime,
			XLabel:  minutesLabel,
			XUnit:   SecondsPerMinute,
			YFields: ys,
			YLabel:  "Buffer occupancy (%)",
		}, nil

	case parser.Delay.Name:
		if opts.Select == nil {
			return nil, fmt.Errorf("delay charts need a message type and priority")
		}
		return &DistributionExtractor{
			Title: fmt.Sprintf("%s message delay, priority %d",
				opts.Select.MessageType, opts.Select.Priority),
			ValueField: FieldDelay,
			Unit:       SecondsPerMinute,
			XLabel:     "Delay (minutes)",
			Select:     opts.Select,
			Mode:       opts.Mode,
			BinWidth:   opts.BinWidth,
		}, nil

	case parser.Traffic.Name:
		return &SeriesExtractor{
			Title:  "Traffic by message type",
			XField: parser.FieldSimTime,
			XLabel: minutesLabel,
			XUnit:  SecondsPerMinute,
			YFields: []YField{
				{Field: "oneToOne", Label: "1-to-1"},
				{Field: "broadcast", Label: "Broadcast"},
				{Field: "multicast", Label: "Multicast"},
				{Field: "data", Label: "Data"},
			},
			YLabel: "Share of traffic (%)",
		}, nil

	case parser.DeliveryProbability.Name:
		return &SeriesExtractor{
			Title:   "1-to-1 message delivery",
			XField:  parser.FieldSimTime,
			XLabel:  minutesLabel,
			XUnit:   SecondsPerMinute,
			YFields: []YField{{Field: "deliveryProbability", Label: "Delivery probability"}},
			YLabel:  "Delivery probability",
		}, nil

	case parser.Broadcast.Name:
		return &SeriesExtractor{
			Title:   "Broadcast delivery",
			XField:  parser.FieldTimeSinceCreation,
			XLabel:  "Time since creation (minutes)",
			XUnit:   SecondsPerMinute,
			YFields: []YField{{Field: "reachedPercentage", Label: "Reached nodes"}},
			YLabel:  "Reached nodes (%)",
		}, nil

	case parser.Multicast.Name:
		return &SeriesExtractor{
			Title:  "Multicast delivery",
			XField: parser.FieldTimeSinceCreation,
			XLabel: "Time since creation (minutes)",
			XUnit:  SecondsPerMinute,
			YFields: []YField{
				{Field: "avgDeliveryRatio", Label: "Average ratio"},
				{Field: "minDeliveryRatio", Label: "Minimum ratio"},
			},
			YLabel: "Delivery ratio",
		}, nil

	case parser.Energy.Name:
		ys := []YField{{Field: "avgEnergy", Label: "Average energy"}}
		if opts.Band {
			ys = append(ys,
				YField{Field: "min", Label: "Minimum"},
				YField{Field: "max", Label: "Maximum"})
		}
		return &SeriesExtractor{
			Title:   "Energy level",
			XField:  parser.FieldSimTime,
			XLabel:  minutesLabel,
			XUnit:   SecondsPerMinute,
			YFields: ys,
			YLabel:  "Energy",
		}, nil

	case parser.DataSync.Name:
		return &SeriesExtractor{
			Title:   "Data synchronization",
			XField:  parser.FieldSimTime,
			XLabel:  minutesLabel,
			XUnit:   SecondsPerMinute,
			YFields: []YField{{Field: "avgUsedMemory", Label: "Used memory"}},
			YLabel:  "Used memory (%)",
		}, nil

	default:
		return nil, fmt.Errorf("no extractor for schema %q", schema)
	}
}
