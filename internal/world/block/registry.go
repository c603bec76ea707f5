package block

import "sort"

// BlockID представляет идентификатор типа блока
type BlockID uint16

// Константы ID блоков. Нумерация совместима с классическими картами,
// поэтому вода занимает два зарезервированных идентификатора (8 и 9).
const (
	AirBlockID             BlockID = 0
	StoneBlockID           BlockID = 1
	GrassBlockID           BlockID = 2
	DirtBlockID            BlockID = 3
	CobblestoneBlockID     BlockID = 4
	WaterBlockID           BlockID = 8 // Текущая вода
	StationaryWaterBlockID BlockID = 9 // Стоячая вода
	LavaBlockID            BlockID = 10
	StationaryLavaBlockID  BlockID = 11
	SandBlockID            BlockID = 12
	GravelBlockID          BlockID = 13
	LogBlockID             BlockID = 17
	LeavesBlockID          BlockID = 18
	TallGrassBlockID       BlockID = 31
	FlowerBlockID          BlockID = 37
	SnowLayerBlockID       BlockID = 78
	IceBlockID             BlockID = 79
	SnowBlockID            BlockID = 80
)

// Info описывает тип блока
type Info struct {
	Name     string
	Emission int // Собственное излучение света 0..15
}

var registry = make(map[BlockID]Info)

// Register добавляет описание блока в регистр
func Register(id BlockID, info Info) {
	registry[id] = info
}

// Get возвращает описание для указанного ID
func Get(id BlockID) (Info, bool) {
	info, exists := registry[id]
	return info, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// Name возвращает имя блока или "unknown"
func Name(id BlockID) string {
	if info, ok := registry[id]; ok {
		return info.Name
	}
	return "unknown"
}

// Emission возвращает уровень света, излучаемого блоком
func Emission(id BlockID) int {
	return registry[id].Emission
}

// IsWater сообщает, что блок - один из двух блоков воды
func IsWater(id BlockID) bool {
	return id == WaterBlockID || id == StationaryWaterBlockID
}

// IDs возвращает все зарегистрированные идентификаторы по возрастанию
func IDs() []BlockID {
	ids := make([]BlockID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Регистрируем все типы блоков при импорте пакета
func init() {
	Register(AirBlockID, Info{Name: "air"})
	Register(StoneBlockID, Info{Name: "stone"})
	Register(GrassBlockID, Info{Name: "grass"})
	Register(DirtBlockID, Info{Name: "dirt"})
	Register(CobblestoneBlockID, Info{Name: "cobblestone"})
	Register(WaterBlockID, Info{Name: "water"})
	Register(StationaryWaterBlockID, Info{Name: "stationary_water"})
	Register(LavaBlockID, Info{Name: "lava", Emission: 15})
	Register(StationaryLavaBlockID, Info{Name: "stationary_lava", Emission: 15})
	Register(SandBlockID, Info{Name: "sand"})
	Register(GravelBlockID, Info{Name: "gravel"})
	Register(LogBlockID, Info{Name: "log"})
	Register(LeavesBlockID, Info{Name: "leaves"})
	Register(TallGrassBlockID, Info{Name: "tall_grass"})
	Register(FlowerBlockID, Info{Name: "flower"})
	Register(SnowLayerBlockID, Info{Name: "snow_layer"})
	Register(IceBlockID, Info{Name: "ice"})
	Register(SnowBlockID, Info{Name: "snow"})
}
