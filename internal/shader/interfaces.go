package shader

import (
	"io"

	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/world"
	"github.com/annel0/topomap/internal/world/block"
)

// DataNeeds описывает, какие данные мира шейдер требует от драйвера обхода до начала тайла
type DataNeeds struct {
	BiomeData         bool
	RawBiomeData      bool
	HighestBlockYData bool
	BlockTypeData     bool
	SkyLightLevel     bool
	EmittedLightLevel bool
}

// MapIterator - узкий доступ шейдера к миру: текущая высота, высота мира и соседи по направлениям
type MapIterator interface {
	Y() int
	WorldHeight() int
	BlockTypeIDAt(step world.BlockStep) block.BlockID
}

// PerspectiveState - состояние луча на текущем шаге, которое предоставляет драйвер обхода
type PerspectiveState interface {
	// BlockTypeID возвращает тип текущего блока
	BlockTypeID() block.BlockID
	// SubblockCoord возвращает координаты точки входа внутри блока, каждая в [0, scale)
	SubblockCoord() [3]int
	// LastBlockStep возвращает шаг, которым луч вошёл в текущий блок
	LastBlockStep() world.BlockStep
	// LightLevels возвращает уровни света ячейки, из которой пришёл луч
	LightLevels() (sky, emitted int)
}

// Lighting - модель освещения
type Lighting interface {
	Name() string
	// IsNightAndDayEnabled сообщает, что освещение выдаёт два цвета: ночной (0) и дневной (1)
	IsNightAndDayEnabled() bool
	// ApplyLighting пишет освещённый цвет в out[0] (и out[1] для ночи/дня)
	ApplyLighting(ps PerspectiveState, ss State, in color.Color, out []color.Color)
}

// State - состояние шейдера для одного тайла; переиспользуется для всех лучей тайла через Reset
type State interface {
	Shader() Shader
	Lighting() Lighting
	// Reset готовит состояние к новому лучу
	Reset(ps PerspectiveState)
	// ProcessBlock обрабатывает очередной блок луча; true - луч завершён
	ProcessBlock(ps PerspectiveState) bool
	// RayFinished сообщает, что луч вышел из мира, не завершившись
	RayFinished(ps PerspectiveState)
	// RayColor копирует результат луча; index 0 - основной цвет, 1 - дневной
	RayColor(c *color.Color, index int)
	// Cleanup вызывается после последнего луча тайла
	Cleanup()
	// LightingTable возвращает таблицу яркости мира или nil
	LightingTable() []int
}

// Shader - фабрика состояний и описание шейдера карты
type Shader interface {
	Name() string
	DataNeeds() DataNeeds
	// StateInstance создаёт состояние для отрисовки одного тайла
	StateInstance(lighting Lighting, iter MapIterator, scale int, brightness []int) State
	// AddClientConfiguration добавляет вклад шейдера в описание карты для клиента
	AddClientConfiguration(m map[string]interface{})
	// ExportMaterialLibrary выгружает материалы для 3D-экспорта
	ExportMaterialLibrary(w io.Writer) error
	// BlockMaterials возвращает имена материалов граней блока для 3D-экспорта
	BlockMaterials(id block.BlockID, steps []world.BlockStep) []string
}
