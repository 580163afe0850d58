package planner

import (
	"math"

	"ai-fitness-planner/internal/nutrition"
)

type mealTemplate struct {
	name        string
	description string
	recipe      string
	ingredients []string
	// Share of calories from protein, carbs and fat. Sums to 1.
	protein, carbs, fat float64
}

var breakfastPool = []mealTemplate{
	{"Greek yogurt with berries and granola", "Creamy yogurt bowl with fresh berries and a crunchy topping.", "Layer the yogurt with berries, top with granola and a drizzle of honey.", []string{"250 g Greek yogurt", "100 g mixed berries", "30 g granola", "1 tsp honey"}, 0.30, 0.45, 0.25},
	{"Oatmeal with banana and walnuts", "Warm oats cooked in milk with banana slices and walnuts.", "Simmer the oats in milk for 5 minutes, top with sliced banana, walnuts and cinnamon.", []string{"60 g rolled oats", "250 ml milk", "1 banana", "15 g walnuts", "cinnamon"}, 0.15, 0.60, 0.25},
	{"Scrambled eggs on wholegrain toast", "Soft scrambled eggs with toast and avocado.", "Scramble the eggs on low heat, serve on toasted bread with sliced avocado.", []string{"3 eggs", "2 slices wholegrain bread", "1/2 avocado", "salt and pepper"}, 0.25, 0.35, 0.40},
	{"Cottage cheese pancakes", "Fluffy pancakes made with cottage cheese and oat flour.", "Blend cottage cheese, eggs and oat flour, cook small pancakes for 2 minutes per side, serve with fruit.", []string{"200 g cottage cheese", "2 eggs", "50 g oat flour", "1 apple"}, 0.35, 0.40, 0.25},
	{"Spinach and feta omelette", "Egg omelette folded over wilted spinach and feta.", "Wilt the spinach, pour in beaten eggs, add feta and fold once set.", []string{"3 eggs", "80 g spinach", "40 g feta", "1 slice rye bread"}, 0.30, 0.20, 0.50},
	{"Protein smoothie bowl", "Thick banana and protein smoothie topped with seeds.", "Blend the frozen banana, protein powder and milk until thick, top with chia seeds and fruit.", []string{"1 frozen banana", "30 g protein powder", "200 ml milk", "1 tbsp chia seeds", "50 g strawberries"}, 0.35, 0.45, 0.20},
	{"Wholegrain toast with peanut butter and apple", "Crunchy toast with peanut butter and thin apple slices.", "Toast the bread, spread the peanut butter and top with apple slices and cinnamon.", []string{"2 slices wholegrain bread", "30 g peanut butter", "1 apple", "cinnamon"}, 0.15, 0.50, 0.35},
}

var lunchPool = []mealTemplate{
	{"Grilled chicken with quinoa and vegetables", "Lean chicken breast with fluffy quinoa and roasted vegetables.", "Grill the chicken, cook the quinoa for 15 minutes and roast the vegetables at 200°C for 20 minutes.", []string{"180 g chicken breast", "80 g quinoa", "1 zucchini", "1 bell pepper", "1 tbsp olive oil"}, 0.35, 0.40, 0.25},
	{"Turkey and rice bowl", "Seasoned ground turkey over brown rice with greens.", "Brown the turkey with spices, serve over cooked rice with spinach and salsa.", []string{"170 g ground turkey", "90 g brown rice", "spinach", "tomato salsa"}, 0.35, 0.45, 0.20},
	{"Salmon with sweet potato", "Pan-seared salmon with roasted sweet potato and broccoli.", "Roast the sweet potato cubes for 25 minutes, sear the salmon 4 minutes per side, steam the broccoli.", []string{"160 g salmon fillet", "250 g sweet potato", "150 g broccoli", "lemon"}, 0.30, 0.40, 0.30},
	{"Lentil and vegetable stew", "Hearty lentil stew with carrots, celery and tomatoes.", "Sauté the vegetables, add lentils, tomatoes and stock, simmer for 30 minutes.", []string{"100 g red lentils", "1 carrot", "1 celery stalk", "400 g canned tomatoes", "1 onion", "vegetable stock"}, 0.25, 0.55, 0.20},
	{"Beef stir-fry with noodles", "Lean beef strips stir-fried with vegetables and noodles.", "Stir-fry the beef on high heat, add vegetables and soy sauce, toss with cooked noodles.", []string{"150 g lean beef", "80 g wholewheat noodles", "1 bell pepper", "broccoli", "soy sauce"}, 0.30, 0.45, 0.25},
	{"Tuna pasta salad", "Wholewheat pasta tossed with tuna, beans and vegetables.", "Cook the pasta, cool it and toss with tuna, beans, cherry tomatoes and olive oil.", []string{"80 g wholewheat pasta", "1 can tuna", "100 g white beans", "cherry tomatoes", "1 tbsp olive oil"}, 0.30, 0.45, 0.25},
	{"Chicken wrap with hummus", "Wholegrain wrap with grilled chicken, hummus and salad.", "Spread hummus on the wrap, add sliced chicken and salad, roll tightly.", []string{"1 wholegrain tortilla", "150 g chicken breast", "40 g hummus", "lettuce", "cucumber"}, 0.35, 0.40, 0.25},
}

var dinnerPool = []mealTemplate{
	{"Baked cod with roasted vegetables", "Flaky cod with a tray of Mediterranean vegetables.", "Bake the cod and vegetables at 200°C for 20 minutes, finish with lemon and parsley.", []string{"200 g cod", "1 eggplant", "1 zucchini", "cherry tomatoes", "1 tbsp olive oil"}, 0.40, 0.30, 0.30},
	{"Turkey meatballs with tomato sauce", "Lean meatballs simmered in tomato sauce with a side salad.", "Form the meatballs, brown them, then simmer in tomato sauce for 15 minutes.", []string{"180 g ground turkey", "1 egg", "300 g tomato passata", "garlic", "mixed salad"}, 0.40, 0.30, 0.30},
	{"Chickpea and spinach curry", "Mild coconut curry with chickpeas and spinach over rice.", "Cook onion and spices, add chickpeas, coconut milk and spinach, simmer 15 minutes, serve with rice.", []string{"200 g chickpeas", "100 ml light coconut milk", "100 g spinach", "60 g basmati rice", "curry spices"}, 0.20, 0.50, 0.30},
	{"Grilled steak with green beans", "Lean sirloin with garlic green beans and baby potatoes.", "Grill the steak to taste, sauté the beans with garlic and boil the potatoes for 15 minutes.", []string{"170 g sirloin steak", "200 g green beans", "200 g baby potatoes", "garlic"}, 0.35, 0.35, 0.30},
	{"Shrimp and vegetable stir-fry", "Quick shrimp stir-fry with crunchy vegetables and rice.", "Stir-fry the shrimp for 3 minutes, add vegetables and sauce, serve over rice.", []string{"200 g shrimp", "1 bell pepper", "snow peas", "60 g jasmine rice", "ginger", "soy sauce"}, 0.35, 0.45, 0.20},
	{"Stuffed bell peppers", "Peppers filled with lean mince, rice and herbs.", "Fill the halved peppers with the cooked mince and rice mixture and bake for 30 minutes.", []string{"2 bell peppers", "150 g lean minced beef", "50 g rice", "tomato sauce", "herbs"}, 0.30, 0.40, 0.30},
	{"Chicken soup with vegetables", "Light chicken soup with root vegetables and noodles.", "Simmer chicken with carrots, celery and parsnip for 40 minutes, add noodles for the last 8 minutes.", []string{"200 g chicken thigh", "1 carrot", "1 parsnip", "1 celery stalk", "40 g egg noodles"}, 0.40, 0.35, 0.25},
}

var workoutPool = []WorkoutEntry{
	{
		Name:        "Full body strength",
		Description: "Compound lifts covering every major muscle group.",
		Duration:    45, Intensity: IntensityModerate, CaloriesBurned: 350,
		Exercises: []Exercise{
			{Name: "Goblet squat", Sets: 3, Reps: "12", RestTime: 60},
			{Name: "Push-up", Sets: 3, Reps: "10-12", RestTime: 60},
			{Name: "Dumbbell row", Sets: 3, Reps: "12", RestTime: 60},
			{Name: "Plank", Sets: 3, Reps: "40 s", RestTime: 45},
		},
	},
	{
		Name:        "HIIT cardio",
		Description: "Short intervals of high effort followed by active rest.",
		Duration:    30, Intensity: IntensityHigh, CaloriesBurned: 400,
		Exercises: []Exercise{
			{Name: "Jumping jacks", Sets: 4, Reps: "40 s", RestTime: 20},
			{Name: "Burpees", Sets: 4, Reps: "30 s", RestTime: 30},
			{Name: "Mountain climbers", Sets: 4, Reps: "40 s", RestTime: 20},
			{Name: "High knees", Sets: 4, Reps: "40 s", RestTime: 20},
		},
	},
	{
		Name:        "Upper body",
		Description: "Chest, back, shoulders and arms.",
		Duration:    50, Intensity: IntensityModerate, CaloriesBurned: 320,
		Exercises: []Exercise{
			{Name: "Dumbbell bench press", Sets: 4, Reps: "8-10", RestTime: 90},
			{Name: "Lat pulldown", Sets: 4, Reps: "10", RestTime: 90},
			{Name: "Overhead press", Sets: 3, Reps: "10", RestTime: 75},
			{Name: "Biceps curl", Sets: 3, Reps: "12", RestTime: 60},
		},
	},
	{
		Name:        "Active recovery",
		Description: "Easy walk and mobility work to recover between sessions.",
		Duration:    45, Intensity: IntensityLight, CaloriesBurned: 150,
		Exercises: []Exercise{
			{Name: "Brisk walk", Sets: 1, Reps: "30 min", RestTime: 0},
			{Name: "Hip mobility flow", Sets: 2, Reps: "5 min", RestTime: 30},
			{Name: "Full body stretching", Sets: 1, Reps: "10 min", RestTime: 0},
		},
	},
	{
		Name:        "Lower body",
		Description: "Legs and glutes with a focus on controlled tempo.",
		Duration:    50, Intensity: IntensityModerate, CaloriesBurned: 380,
		Exercises: []Exercise{
			{Name: "Romanian deadlift", Sets: 4, Reps: "10", RestTime: 90},
			{Name: "Walking lunge", Sets: 3, Reps: "12 per leg", RestTime: 75},
			{Name: "Glute bridge", Sets: 3, Reps: "15", RestTime: 60},
			{Name: "Calf raise", Sets: 3, Reps: "15", RestTime: 45},
		},
	},
	{
		Name:        "Steady-state cardio",
		Description: "Continuous moderate cardio in the aerobic zone.",
		Duration:    40, Intensity: IntensityModerate, CaloriesBurned: 320,
		Exercises: []Exercise{
			{Name: "Cycling or jogging", Sets: 1, Reps: "35 min", RestTime: 0},
			{Name: "Cool-down stretch", Sets: 1, Reps: "5 min", RestTime: 0},
		},
	},
	{
		Name:        "Functional training",
		Description: "Multi-joint movements for everyday strength and balance.",
		Duration:    45, Intensity: IntensityModerate, CaloriesBurned: 350,
		Exercises: []Exercise{
			{Name: "Kettlebell swing", Sets: 4, Reps: "15", RestTime: 60},
			{Name: "Step-up", Sets: 3, Reps: "10 per leg", RestTime: 60},
			{Name: "Farmer carry", Sets: 3, Reps: "40 m", RestTime: 60},
			{Name: "Dead bug", Sets: 3, Reps: "10 per side", RestTime: 45},
		},
	},
}

// Synthesize builds a complete week from the built-in pools without any remote
// call. Output depends only on its arguments.
func Synthesize(targetDailyCalories int, sex nutrition.Sex) (MealPlanData, WorkoutPlanData) {
	if targetDailyCalories <= 0 {
		targetDailyCalories = nutrition.MinHealthyCalories(sex)
	}
	alloc := nutrition.Allocate(targetDailyCalories)
	slots := []struct {
		mealType MealType
		pool     []mealTemplate
		calories int
	}{
		{Breakfast, breakfastPool, alloc.Breakfast},
		{Lunch, lunchPool, alloc.Lunch},
		{Dinner, dinnerPool, alloc.Dinner},
	}

	meals := make([]MealEntry, 0, DaysPerWeek*len(slots))
	for day := 0; day < DaysPerWeek; day++ {
		for _, s := range slots {
			meals = append(meals, s.pool[day%len(s.pool)].entry(day, s.mealType, s.calories))
		}
	}
	total := SumMacros(meals)

	workouts := make([]WorkoutEntry, 0, DaysPerWeek)
	for day := 0; day < DaysPerWeek; day++ {
		w := workoutPool[day%len(workoutPool)]
		w.Day = day
		w.Exercises = append([]Exercise(nil), w.Exercises...)
		workouts = append(workouts, w)
	}

	return MealPlanData{Meals: meals, TotalNutrition: &total}, WorkoutPlanData{Workouts: workouts}
}

func (t mealTemplate) entry(day int, mealType MealType, calories int) MealEntry {
	c := float64(calories)
	return MealEntry{
		Day:         day,
		MealType:    mealType,
		Name:        t.name,
		Description: t.description,
		Recipe:      t.recipe,
		Ingredients: append([]string(nil), t.ingredients...),
		Macros: Macros{
			Calories: calories,
			Protein:  int(math.Round(c * t.protein / 4)),
			Carbs:    int(math.Round(c * t.carbs / 4)),
			Fat:      int(math.Round(c * t.fat / 9)),
		},
	}
}
