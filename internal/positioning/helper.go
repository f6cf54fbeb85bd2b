package positioning

import (
	"fmt"
)

// Fallback standard deviations used when a reading carries none.
const (
	DefaultRangingStdDev = 0.1
	DefaultRSSIStdDev    = 1.0
)

// BuildPositionsAndDistances flattens sources and a fingerprint into the
// parallel anchor-position and distance slices the lateration solvers
// consume. Ranging readings contribute their distance directly, RSSI
// readings are converted through the source's path-loss parameters, and
// combined readings contribute both measurements. Readings from unknown
// sources, and RSSI readings from sources without a transmitted power, are
// skipped.
func BuildPositionsAndDistances(sources []*RadioSource, fingerprint *Fingerprint) ([]Point, []float64, error) {
	positions, distances, _, _, err := build(sources, fingerprint, nil)
	if err != nil {
		return nil, nil, err
	}
	return positions, distances, nil
}

// BuildPositionsDistancesAndStdDevs additionally reports a standard deviation
// per measurement. Ranging measurements without one fall back to
// DefaultRangingStdDev; RSSI-derived distances propagate the reading's RSSI
// standard deviation (DefaultRSSIStdDev when absent) through the path-loss
// model.
func BuildPositionsDistancesAndStdDevs(sources []*RadioSource, fingerprint *Fingerprint) ([]Point, []float64, []float64, error) {
	positions, distances, stdDevs, _, err := build(sources, fingerprint, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return positions, distances, stdDevs, nil
}

// BuildPositionsDistancesStdDevsAndQualityScores also spreads per-source
// quality scores onto the measurements each source contributed, for the
// score-guided robust methods. sourceQualityScores must parallel sources.
func BuildPositionsDistancesStdDevsAndQualityScores(sources []*RadioSource, fingerprint *Fingerprint, sourceQualityScores []float64) ([]Point, []float64, []float64, []float64, error) {
	if len(sourceQualityScores) != len(sources) {
		return nil, nil, nil, nil, fmt.Errorf("%w: got %d quality scores for %d sources",
			ErrInvalidArgument, len(sourceQualityScores), len(sources))
	}
	return build(sources, fingerprint, sourceQualityScores)
}

func build(sources []*RadioSource, fingerprint *Fingerprint, sourceQualityScores []float64) ([]Point, []float64, []float64, []float64, error) {
	if len(sources) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: no sources", ErrInvalidArgument)
	}
	if fingerprint == nil || fingerprint.Size() == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: empty fingerprint", ErrInvalidArgument)
	}

	type indexedSource struct {
		source *RadioSource
		score  float64
	}
	byMac := make(map[string]indexedSource, len(sources))
	for i, source := range sources {
		if source == nil {
			return nil, nil, nil, nil, fmt.Errorf("%w: source %d is nil", ErrInvalidArgument, i)
		}
		score := 1.0
		if sourceQualityScores != nil {
			score = sourceQualityScores[i]
		}
		byMac[source.MacAddress] = indexedSource{source: source, score: score}
	}

	var (
		positions []Point
		distances []float64
		stdDevs   []float64
		scores    []float64
	)

	appendMeasurement := func(source *RadioSource, distance, stdDev, score float64) {
		positions = append(positions, source.Position)
		distances = append(distances, distance)
		stdDevs = append(stdDevs, stdDev)
		scores = append(scores, score)
	}

	for _, reading := range fingerprint.Readings {
		entry, known := byMac[reading.SourceMac]
		if !known {
			continue
		}
		source := entry.source

		if reading.HasDistance() {
			stdDev := DefaultRangingStdDev
			if reading.DistanceStdDev != nil {
				stdDev = *reading.DistanceStdDev
			}
			appendMeasurement(source, reading.Distance, stdDev, entry.score)
		}

		if reading.HasRSSI() && source.HasTransmittedPower() {
			distance, err := DistanceFromRSSI(reading.RSSI, *source.TransmittedPower, source.PathLossExponent)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			rssiStdDev := DefaultRSSIStdDev
			if reading.RSSIStdDev != nil {
				rssiStdDev = *reading.RSSIStdDev
			}
			stdDev := DistanceStdDevFromRSSI(distance, source.PathLossExponent, rssiStdDev)
			appendMeasurement(source, distance, stdDev, entry.score)
		}
	}

	return positions, distances, stdDevs, scores, nil
}
