package tracking

import "strings"

// classLabels maps detector (COCO) class names to tactical display labels.
var classLabels = map[string]string{
	// bio
	"person":   "BIO_UNIT",
	"cat":      "TARGET_FELINE",
	"dog":      "TARGET_CANINE",
	"bird":     "BIO_AIR",
	"horse":    "BIO_LARGE",
	"sheep":    "LIVESTOCK_SM",
	"cow":      "LIVESTOCK_LG",
	"elephant": "BIO_GIANT",
	"bear":     "BIO_HAZARD",
	"zebra":    "BIO_WILD",
	"giraffe":  "BIO_TALL",

	// vehicles and street furniture
	"bicycle":       "CYCLE_TRANSPORT",
	"car":           "VEHICLE_LIGHT",
	"motorcycle":    "MOTO_TRANSPORT",
	"airplane":      "AIRCRAFT",
	"bus":           "VEHICLE_PASSENGER",
	"train":         "RAIL_CONSIST",
	"truck":         "VEHICLE_CARGO",
	"boat":          "WATERCRAFT",
	"traffic light": "SIGNAL_LIGHT",
	"fire hydrant":  "HYDRANT",
	"stop sign":     "SIGN_STOP",
	"parking meter": "PARKING_METER",
	"bench":         "BENCH",

	// electronics and indoor
	"cell phone":   "COMMS_DEVICE",
	"laptop":       "TERMINAL",
	"tv":           "DISPLAY_LG",
	"remote":       "CONTROL_UNIT",
	"keyboard":     "INPUT_DEVICE",
	"mouse":        "MANIPULATOR",
	"microwave":    "MW_OVEN",
	"oven":         "OVEN",
	"toaster":      "TOASTER",
	"sink":         "SINK",
	"refrigerator": "COLD_STORAGE",

	// objects
	"backpack":       "PACK_TACTICAL",
	"umbrella":       "UMBRELLA",
	"handbag":        "BAG_HAND",
	"tie":            "NECK_ACCESSORY",
	"suitcase":       "CARGO_CASE",
	"frisbee":        "DISC_SPORT",
	"skis":           "SKIS",
	"snowboard":      "SNOWBOARD",
	"sports ball":    "SPHERE_SPORT",
	"kite":           "AIR_KITE",
	"baseball bat":   "BAT",
	"baseball glove": "GLOVE",
	"skateboard":     "BOARD_ROLLER",
	"surfboard":      "SURFBOARD",
	"tennis racket":  "RACKET",
	"bottle":         "LIQUID_CONTAINER",
	"wine glass":     "GLASSWARE",
	"cup":            "MUG",
	"fork":           "FORK",
	"knife":          "BLADE",
	"spoon":          "SPOON",
	"bowl":           "BOWL",
	"banana":         "FOOD_FRUIT",
	"apple":          "FOOD_FRUIT",
	"sandwich":       "FOOD_COMPOSITE",
	"orange":         "FOOD_FRUIT",
	"broccoli":       "FOOD_VEG",
	"carrot":         "FOOD_VEG",
	"hot dog":        "FOOD_FAST",
	"pizza":          "FOOD_FAST",
	"donut":          "FOOD_SWEET",
	"cake":           "FOOD_SWEET",
	"chair":          "SEAT",
	"couch":          "SEAT_LOUNGE",
	"potted plant":   "FLORA",
	"bed":            "REST_ZONE",
	"dining table":   "TABLE",
	"toilet":         "SANITARY",
	"book":           "DATA_BOOK",
	"clock":          "CHRONOMETER",
	"vase":           "CERAMIC",
	"scissors":       "CUTTING_TOOL",
	"teddy bear":     "TOY",
	"hair drier":     "THERMAL_DRYER",
	"toothbrush":     "HYGIENE",
}

// DisplayLabel translates a detector class into its display label.
// Overrides win over the built-in table; unknown classes fall back to the
// upper-cased class name.
func DisplayLabel(class string, overrides map[string]string) string {
	if l, ok := overrides[class]; ok && l != "" {
		return strings.ToUpper(l)
	}
	if l, ok := classLabels[class]; ok {
		return l
	}
	return strings.ToUpper(class)
}
