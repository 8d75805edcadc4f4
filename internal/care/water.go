package care

import (
	"math"
	"strings"

	"plantcare/internal/weather"
)

// Watering amount bounds in millilitres.
const (
	MinWaterMl = 80
	MaxWaterMl = 1000
)

const mlPerOz = 29.5735

// RecommendedWaterMl estimates a watering amount from pot diameter, soil mix
// and humidity preference. Pots default to 12 cm.
func RecommendedWaterMl(potSizeCm *int, soilType, humidityPref string) int {
	d := 12.0
	if potSizeCm != nil && *potSizeCm > 0 {
		d = float64(*potSizeCm)
	}
	ml := d * 15

	soil := strings.ToLower(soilType)
	switch {
	case containsAny(soil, "succulent", "cactus", "gritty"):
		ml *= 0.6
	case containsAny(soil, "peat", "coco", "moist"):
		ml *= 1.1
	}

	switch humidityPref {
	case "high":
		ml *= 1.1
	case "low":
		ml *= 0.9
	}
	return clampMl(ml)
}

// AdjustedWaterMl scales base for current conditions: hot spells and dry air
// raise the amount, cool or humid weather lowers it.
func AdjustedWaterMl(base int, cur weather.Current) int {
	ml := float64(base)
	switch {
	case cur.TempC > 28:
		ml *= 1.15
	case cur.TempC < 15:
		ml *= 0.9
	}
	switch {
	case cur.Humidity > 0 && cur.Humidity < 35:
		ml *= 1.1
	case cur.Humidity > 70:
		ml *= 0.9
	}
	return clampMl(ml)
}

// MlToOz converts millilitres to US fluid ounces.
func MlToOz(ml int) float64 {
	return float64(ml) / mlPerOz
}

func clampMl(ml float64) int {
	ml = math.Max(MinWaterMl, math.Min(ml, MaxWaterMl))
	return int(math.Round(ml))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
