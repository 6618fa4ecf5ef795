package naive

import (
	"os"

	"gopkg.in/yaml.v3"
)

type materialFile struct {
	BaseColor []float32 `yaml:"base_color"`
	Roughness float32   `yaml:"roughness"`
	Metallic  float32   `yaml:"metallic"`
	Emission  []float32 `yaml:"emission"`
}

func loadMaterialAsset(path string) (MaterialAsset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MaterialAsset{}, err
	}
	var mf materialFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return MaterialAsset{}, err
	}

	asset := MaterialAsset{
		Path:      path,
		Roughness: mf.Roughness,
		Metallic:  mf.Metallic,
	}
	for i := 0; i < len(mf.BaseColor) && i < 4; i++ {
		asset.BaseColor[i] = mf.BaseColor[i]
	}
	if len(mf.BaseColor) < 4 {
		asset.BaseColor[3] = 1 // default opaque when alpha is omitted
	}
	for i := 0; i < len(mf.Emission) && i < 3; i++ {
		asset.Emission[i] = mf.Emission[i]
	}
	return asset, nil
}
