package dashboard

import (
	"epidash/internal/model"
)

func obs(key string, period int, group string, m model.Measure, v float64) model.Observation {
	o := model.Observation{Key: key, Period: period, AgeGroup: group}
	o.Values[m] = v
	return o
}

// fixture has two regions over periods 0, 2, 4 with a gap at period 3 and
// two age groups; region "3" has no geometry.
func fixture() *Dataset {
	const m = model.InfectedNoSymptomsNotContagious
	rows := []model.Observation{
		obs("1", 0, "AGE_0_18", m, 1),
		obs("1", 0, "AGE_19_64", m, 2),
		obs("2", 0, "AGE_0_18", m, 3),
		obs("1", 2, "AGE_0_18", m, 10),
		obs("2", 2, "AGE_19_64", m, 20),
		obs("1", 4, "AGE_0_18", m, 100),
		obs("2", 4, "AGE_0_18", m, 200),
		obs("3", 4, "AGE_0_18", m, 7),
	}
	load := []model.Observation{
		obs("Hospital A", 4, "AGE_0_18", m, 50),
		obs("Hospital B", 4, "AGE_0_18", m, 10),
		obs("Hospital C", 4, "AGE_0_18", m, 10),
	}
	facilities := []model.Facility{
		{Name: "Hospital A", Capacity: 100},
		{Name: "Hospital B", Capacity: 10},
		{Name: "Hospital C", Capacity: 100},
		{Name: "Hospital D", Capacity: 0},
	}
	regions := []model.Region{{ID: "1", Name: "Groningen"}, {ID: "2", Name: "Friesland"}}
	return NewDataset(regions, rows, load, facilities)
}
