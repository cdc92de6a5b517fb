package normalize

import "strings"

// greekReplacer 希臘字母轉拉丁拼寫
var greekReplacer = strings.NewReplacer(
	"α", "alpha",
	"Α", "alpha",
	"β", "beta",
	"Β", "beta",
	"γ", "gamma",
	"Γ", "gamma",
	"δ", "delta",
	"Δ", "delta",
	"ε", "epsilon",
	"κ", "kappa",
	"ω", "omega",
	"Ω", "omega",
)

// dotReplacer 非 ASCII 點號統一為水合分隔符「·」
var dotReplacer = strings.NewReplacer(
	"・", "·", // 片假名中點
	"･", "·", // 半形片假名中點
	"•", "·", // 項目符號
	"∙", "·", // bullet operator
	"⋅", "·", // dot operator
)

// atomNames 原子符號對應鹽類前綴名
var atomNames = map[string]string{
	"NH4": "ammonium",
	"Na":  "sodium",
	"K":   "potassium",
	"Ca":  "calcium",
	"Mg":  "magnesium",
	"Fe":  "iron",
	"Mn":  "manganese",
	"Zn":  "zinc",
	"Cu":  "copper",
	"Co":  "cobalt",
	"Ni":  "nickel",
	"Li":  "lithium",
}

// multiplicityPrefixes 數字對應倍數前綴
var multiplicityPrefixes = map[string]string{
	"":  "",
	"1": "",
	"2": "di",
	"3": "tri",
	"4": "tetra",
	"5": "penta",
	"6": "hexa",
}

// hydrateWords 命名水合詞對應水合數
var hydrateWords = map[string]int{
	"hemi":   1, // 半水合取整記為 1
	"mono":   1,
	"sesqui": 2, // 1.5 取整記為 2
	"di":     2,
	"tri":    3,
	"tetra":  4,
	"penta":  5,
	"hexa":   6,
	"hepta":  7,
	"octa":   8,
	"nona":   9,
	"deca":   10,
}

// bufferSynonyms 緩衝劑縮寫對應完整化學名；鍵一律小寫
var bufferSynonyms = map[string]string{
	"hepes":              "4-(2-hydroxyethyl)-1-piperazineethanesulfonic acid",
	"mes":                "2-(N-morpholino)ethanesulfonic acid",
	"mops":               "3-(N-morpholino)propanesulfonic acid",
	"pipes":              "piperazine-N,N'-bis(2-ethanesulfonic acid)",
	"caps":               "N-cyclohexyl-3-aminopropanesulfonic acid",
	"tes":                "N-tris(hydroxymethyl)methyl-2-aminoethanesulfonic acid",
	"taps":               "N-tris(hydroxymethyl)methyl-3-aminopropanesulfonic acid",
	"tricine":            "N-tris(hydroxymethyl)methylglycine",
	"bicine":             "N,N-bis(2-hydroxyethyl)glycine",
	"tris":               "tris(hydroxymethyl)aminomethane",
	"tris base":          "tris(hydroxymethyl)aminomethane",
	"trizma":             "tris(hydroxymethyl)aminomethane",
	"tris hydrochloride": "tris(hydroxymethyl)aminomethane hydrochloride",
	"bis-tris":           "bis(2-hydroxyethyl)amino-tris(hydroxymethyl)methane",
}

// formulaNames 化學式對應常用名；鍵區分大小寫（化學式本身有大小寫語義）
var formulaNames = map[string]string{
	"H2O":      "water",
	"NaCl":     "sodium chloride",
	"KCl":      "potassium chloride",
	"MgCl2":    "magnesium chloride",
	"MgSO4":    "magnesium sulfate",
	"CaCl2":    "calcium chloride",
	"CaCO3":    "calcium carbonate",
	"CaSO4":    "calcium sulfate",
	"FeSO4":    "iron(II) sulfate",
	"FeCl2":    "iron(II) chloride",
	"FeCl3":    "iron(III) chloride",
	"MnCl2":    "manganese(II) chloride",
	"MnSO4":    "manganese(II) sulfate",
	"ZnSO4":    "zinc sulfate",
	"ZnCl2":    "zinc chloride",
	"CuSO4":    "copper(II) sulfate",
	"CuCl2":    "copper(II) chloride",
	"CoCl2":    "cobalt(II) chloride",
	"CoSO4":    "cobalt(II) sulfate",
	"NiCl2":    "nickel(II) chloride",
	"NiSO4":    "nickel(II) sulfate",
	"NaHCO3":   "sodium bicarbonate",
	"Na2CO3":   "sodium carbonate",
	"NaNO3":    "sodium nitrate",
	"KNO3":     "potassium nitrate",
	"NaOH":     "sodium hydroxide",
	"KOH":      "potassium hydroxide",
	"NaH2PO4":  "sodium dihydrogen phosphate",
	"Na2HPO4":  "disodium hydrogen phosphate",
	"KH2PO4":   "potassium dihydrogen phosphate",
	"K2HPO4":   "dipotassium hydrogen phosphate",
	"K2SO4":    "potassium sulfate",
	"Na2SO4":   "sodium sulfate",
	"Na2S":     "sodium sulfide",
	"Na2S2O3":  "sodium thiosulfate",
	"Na2SeO3":  "sodium selenite",
	"Na2MoO4":  "sodium molybdate",
	"Na2WO4":   "sodium tungstate",
	"NH4Cl":    "ammonium chloride",
	"NH4NO3":   "ammonium nitrate",
	"(NH4)2SO4": "ammonium sulfate",
	"H3BO3":    "boric acid",
	"HCl":      "hydrochloric acid",
	"H2SO4":    "sulfuric acid",
	"CO2":      "carbon dioxide",
	"O2":       "oxygen",
	"N2":       "nitrogen",
	"H2":       "hydrogen",
	"H2S":      "hydrogen sulfide",
	"CH4":      "methane",
	"C6H12O6":  "glucose",
}
