package block

import "testing"

func TestWaterIDs(t *testing.T) {
	if !IsWater(WaterBlockID) || !IsWater(StationaryWaterBlockID) {
		t.Error("Блоки 8 и 9 должны считаться водой")
	}
	if IsWater(LavaBlockID) || IsWater(AirBlockID) {
		t.Error("Лава и воздух не являются водой")
	}
}

func TestRegistryLookup(t *testing.T) {
	if Name(AirBlockID) != "air" {
		t.Errorf("Ожидалось имя air, получено %s", Name(AirBlockID))
	}
	if Name(BlockID(4000)) != "unknown" {
		t.Error("Незарегистрированный блок должен называться unknown")
	}
	if Emission(LavaBlockID) != 15 {
		t.Errorf("Лава должна излучать 15, получено %d", Emission(LavaBlockID))
	}
	ids := IDs()
	if len(ids) == 0 || ids[0] != AirBlockID {
		t.Errorf("Список ID должен начинаться с воздуха: %v", ids)
	}
}
