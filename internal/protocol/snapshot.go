package protocol

import "time"

// StaticInfo is captured once at startup and never changes afterwards.
type StaticInfo struct {
	Name           string
	KernelVersion  string
	OSVersion      string
	LongOSVersion  string
	DistributionID string
	Hostname       string
	BootTime       uint64 // epoch seconds
}

// Thread is a single logical CPU as seen by the scheduler.
type Thread struct {
	Name      string
	Brand     string
	Usage     float64 // percent
	Frequency uint64  // MHz
}

type Processor struct {
	Load1       float64
	Load5       float64
	Load15      float64
	Percent     float64
	Arch        string
	ThreadCount uint64
	Threads     []Thread
	Refreshed   time.Time
}

type Memory struct {
	Total     uint64
	Available uint64
	Used      uint64
	Free      uint64
	Percent   float64
	Refreshed time.Time
}

type Swap struct {
	Total     uint64
	Used      uint64
	Free      uint64
	Percent   float64
	Refreshed time.Time
}

// Storage is keyed by device name in the Snapshot.
type Storage struct {
	Name              string
	MountPoint        string
	Total             uint64
	Used              uint64
	Free              uint64
	Percent           float64
	ReadSpeed         float64 // bytes/s
	WriteSpeed        float64 // bytes/s
	TotalReadBytes    uint64
	TotalWrittenBytes uint64
	Refreshed         time.Time
}

// Network is keyed by interface name in the Snapshot.
type Network struct {
	Download           float64 // Mbit/s
	Upload             float64 // Mbit/s
	ErrorsReceived     uint64
	ErrorsTransmitted  uint64
	PacketsReceived    uint64
	PacketsTransmitted uint64
	Refreshed          time.Time
}

// Component is a thermal sensor. Nil thresholds mean the sensor does not
// report them.
type Component struct {
	Label       string
	Temperature *float64
	Critical    *float64
	Max         *float64
	Refreshed   time.Time
}

type Process struct {
	PID           uint32
	Name          string
	CPU           float64 // percent
	Memory        uint64  // resident bytes
	VirtualMemory uint64
	Refreshed     time.Time
}

// Power is the out-of-band power reading. Updating is set while a slow read
// is in flight and is only ever touched under the store's write lock.
type Power struct {
	Watts     float64
	Refreshed time.Time
	Updating  bool
}

type UPS struct {
	Manufacturer     string
	Model            string
	Status           string
	ChargePercent    float64
	LoadPercent      float64
	RuntimeSeconds   uint64
	InputVoltage     float64
	OutputVoltage    float64
	RealPowerNominal float64
	PowerUsage       float64 // derived watts
	Refreshed        time.Time
}

type Battery struct {
	Vendor        string
	Model         string
	Serial        string
	State         string
	Technology    string
	ChargePercent float64
	HealthPercent float64
	Voltage       float64 // V
	EnergyRate    float64 // W
	Energy        float64 // Wh
	EnergyFull    float64 // Wh
	CycleCount    *uint64
	Refreshed     time.Time
}

// Snapshot is the latest reading of every monitored subsystem. Per-device
// entries are never removed once created.
type Snapshot struct {
	Static     StaticInfo
	Processor  Processor
	Memory     Memory
	Swap       Swap
	Power      Power
	Storage    map[string]Storage
	Networks   map[string]Network
	Components map[string]Component
	Processes  map[string]Process
	UPSes      map[string]UPS
	Batteries  map[string]Battery

	// Refreshed is the completion time of the last full refresh cycle.
	Refreshed time.Time
}

func NewSnapshot(static StaticInfo) *Snapshot {
	return &Snapshot{
		Static:     static,
		Storage:    make(map[string]Storage),
		Networks:   make(map[string]Network),
		Components: make(map[string]Component),
		Processes:  make(map[string]Process),
		UPSes:      make(map[string]UPS),
		Batteries:  make(map[string]Battery),
	}
}
