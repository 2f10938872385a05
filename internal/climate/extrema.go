package climate

// Seed returns extrema where both bounds equal the reading. Used when no
// earlier record exists.
func Seed(r Reading) Extrema {
	return Extrema{
		TempMin: r.Temperature,
		TempMax: r.Temperature,
		HumiMin: r.Humidity,
		HumiMax: r.Humidity,
	}
}

// Update returns current widened by r. A bound only moves when the reading is
// strictly outside it; a reading equal to a bound leaves it untouched.
func Update(current Extrema, r Reading) Extrema {
	next := current
	if r.Temperature > next.TempMax {
		next.TempMax = r.Temperature
	}
	if r.Temperature < next.TempMin {
		next.TempMin = r.Temperature
	}
	if r.Humidity > next.HumiMax {
		next.HumiMax = r.Humidity
	}
	if r.Humidity < next.HumiMin {
		next.HumiMin = r.Humidity
	}
	return next
}

// Merge combines persisted extrema with freshly observed ones, keeping the
// wider bound for every field. Merge is commutative and idempotent.
func Merge(loaded, fresh Extrema) Extrema {
	return Extrema{
		TempMin: min(loaded.TempMin, fresh.TempMin),
		TempMax: max(loaded.TempMax, fresh.TempMax),
		HumiMin: min(loaded.HumiMin, fresh.HumiMin),
		HumiMax: max(loaded.HumiMax, fresh.HumiMax),
	}
}
