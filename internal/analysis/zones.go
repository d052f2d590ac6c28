package analysis

// PowerZone is one band of the 7-zone power model.
// MaxWatts and MaxPct are nil for the open-ended top zone.
type PowerZone struct {
	Zone     int
	Name     string
	MinWatts int
	MaxWatts *int
	MinPct   int
	MaxPct   *int
}

type zoneBand struct {
	number int
	name   string
	minPct float64
	maxPct float64 // 0 means open-ended
}

var zoneBands = []zoneBand{
	{1, "Active Recovery", 0, 0.55},
	{2, "Endurance", 0.55, 0.75},
	{3, "Tempo", 0.75, 0.90},
	{4, "Threshold", 0.90, 1.05},
	{5, "VO2max", 1.05, 1.20},
	{6, "Anaerobic", 1.20, 1.50},
	{7, "Neuromuscular", 1.50, 0},
}

// PowerZones returns the 7 contiguous power zones for an FTP
func PowerZones(ftp float64) []PowerZone {
	zones := make([]PowerZone, 0, len(zoneBands))
	for _, b := range zoneBands {
		z := PowerZone{
			Zone:     b.number,
			Name:     b.name,
			MinWatts: roundInt(ftp * b.minPct),
			MinPct:   roundInt(b.minPct * 100),
		}
		if b.maxPct > 0 {
			maxWatts := roundInt(ftp * b.maxPct)
			maxPct := roundInt(b.maxPct * 100)
			z.MaxWatts = &maxWatts
			z.MaxPct = &maxPct
		}
		zones = append(zones, z)
	}
	return zones
}

// ZoneTime is the time spent in one power zone
type ZoneTime struct {
	Zone    PowerZone
	Seconds int
	Percent float64
}

// TimeInZones buckets power samples into the 7 zones.
// Returns nil without an FTP or without usable samples.
func TimeInZones(samples []float64, intervalSeconds int, ftp float64) []ZoneTime {
	if ftp <= 0 || len(samples) == 0 {
		return nil
	}
	if intervalSeconds <= 0 {
		intervalSeconds = DefaultSampleInterval
	}

	counts := make([]int, len(zoneBands))
	total := 0
	for _, p := range samples {
		if p < 0 {
			continue
		}
		counts[zoneIndex(p/ftp)]++
		total++
	}
	if total == 0 {
		return nil
	}

	zones := PowerZones(ftp)
	out := make([]ZoneTime, len(zones))
	for i, z := range zones {
		out[i] = ZoneTime{
			Zone:    z,
			Seconds: counts[i] * intervalSeconds,
			Percent: round(float64(counts[i])/float64(total)*100, 1),
		}
	}
	return out
}

// zoneIndex returns the index of the band containing a fraction of FTP
func zoneIndex(fraction float64) int {
	for i, b := range zoneBands {
		if b.maxPct == 0 || fraction < b.maxPct {
			return i
		}
	}
	return len(zoneBands) - 1
}
