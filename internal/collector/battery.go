package collector

// BatteryStat is one battery as exposed by the kernel power_supply class.
// Energy values are in Wh, rates in W and voltage in V.
type BatteryStat struct {
	Name          string
	Vendor        string
	Model         string
	Serial        string
	State         string
	Technology    string
	ChargePercent float64
	HealthPercent float64
	Voltage       float64
	EnergyRate    float64
	Energy        float64
	EnergyFull    float64
	CycleCount    *uint64
}
