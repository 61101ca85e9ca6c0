package coach

import (
	"fmt"
	"strings"
)

type bankEntry struct {
	keywords  []string
	questions []Question
}

// bank holds curated questions keyed by topic keywords.
var bank = []bankEntry{
	{
		keywords: []string{"array", "slice", "list"},
		questions: []Question{
			{Text: "What is the index of the first element of an array in most C-family languages?", Options: []string{"0", "1", "-1", "It depends on the array length"}, Correct: 0, Explanation: "Arrays are zero-indexed, so the first element is at index 0."},
			{Text: "What does `arr.length` return for `let arr = [3, 5, 7]`?", Options: []string{"3", "2", "7", "15"}, Correct: 0, Explanation: "length counts the elements, and the array holds three."},
			{Text: "Which operation usually costs O(n) on an array of n elements?", Options: []string{"Inserting at the front", "Reading by index", "Reading the length", "Overwriting the last element"}, Correct: 0, Explanation: "Inserting at the front shifts every existing element by one position."},
			{Text: "What does `[1, 2, 3].map(x => x * 2)` return?", Options: []string{"[2, 4, 6]", "[1, 2, 3]", "12", "undefined"}, Correct: 0, Explanation: "map returns a new array with the callback applied to every element."},
		},
	},
	{
		keywords: []string{"string", "text"},
		questions: []Question{
			{Text: "What does `\"hello\".toUpperCase()` return?", Options: []string{"\"HELLO\"", "\"Hello\"", "\"hello\"", "An error"}, Correct: 0, Explanation: "toUpperCase returns a new string with every letter in upper case."},
			{Text: "Why does concatenating strings inside a long loop often perform poorly?", Options: []string{"Each concatenation may copy the whole string", "Strings cannot be concatenated in loops", "Loops convert strings to numbers", "The compiler removes the loop"}, Correct: 0, Explanation: "Immutable strings are copied on every concatenation, which makes the loop quadratic."},
			{Text: "What is `\"abc\".length`?", Options: []string{"3", "2", "4", "undefined"}, Correct: 0, Explanation: "The string has three characters."},
		},
	},
	{
		keywords: []string{"loop", "iteration"},
		questions: []Question{
			{Text: "How many times does `for (let i = 0; i < 5; i++)` run its body?", Options: []string{"5", "4", "6", "Forever"}, Correct: 0, Explanation: "i takes the values 0 to 4, which is five iterations."},
			{Text: "What does `break` do inside a loop?", Options: []string{"Exits the loop immediately", "Skips to the next iteration", "Restarts the loop", "Ends the program"}, Correct: 0, Explanation: "break leaves the innermost loop; continue is the one that skips to the next iteration."},
			{Text: "Which loop always runs its body at least once?", Options: []string{"do...while", "while", "for", "for...of"}, Correct: 0, Explanation: "do...while checks its condition after the body."},
		},
	},
	{
		keywords: []string{"function", "closure", "recursion"},
		questions: []Question{
			{Text: "What does a function without a return statement return in JavaScript?", Options: []string{"undefined", "null", "0", "An empty string"}, Correct: 0, Explanation: "Functions that do not return a value evaluate to undefined."},
			{Text: "What must every recursive function have to terminate?", Options: []string{"A base case", "A loop", "A global variable", "At least two parameters"}, Correct: 0, Explanation: "The base case stops the recursion."},
			{Text: "What is a closure?", Options: []string{"A function that keeps access to variables of its enclosing scope", "A function that cannot be called twice", "A way to end a program", "A loop that never runs"}, Correct: 0, Explanation: "A closure captures the variables of the scope it was created in."},
		},
	},
	{
		keywords: []string{"object", "map", "dictionary", "hash"},
		questions: []Question{
			{Text: "What is the average time to look up a key in a hash map?", Options: []string{"O(1)", "O(n)", "O(log n)", "O(n log n)"}, Correct: 0, Explanation: "Hashing takes the lookup straight to a bucket, so it is constant on average."},
			{Text: "What does `Object.keys({a: 1, b: 2})` return?", Options: []string{"[\"a\", \"b\"]", "[1, 2]", "2", "{a, b}"}, Correct: 0, Explanation: "Object.keys returns an array of the object's own property names."},
			{Text: "What happens when you assign to an existing key of a map?", Options: []string{"The old value is replaced", "A second entry is added", "An error is raised", "The assignment is ignored"}, Correct: 0, Explanation: "Keys are unique, so assignment overwrites the stored value."},
		},
	},
	{
		keywords: []string{"variable", "scope"},
		questions: []Question{
			{Text: "Which keyword declares a block-scoped variable that cannot be reassigned?", Options: []string{"const", "var", "let", "static"}, Correct: 0, Explanation: "const is block scoped and forbids reassignment."},
			{Text: "What is `typeof null` in JavaScript?", Options: []string{"\"object\"", "\"null\"", "\"undefined\"", "\"number\""}, Correct: 0, Explanation: "A long-standing quirk of the language reports null as \"object\"."},
			{Text: "What does `let x; console.log(x)` print?", Options: []string{"undefined", "null", "0", "A ReferenceError"}, Correct: 0, Explanation: "Declared but unassigned variables hold undefined."},
		},
	},
}

// genericQuestions work for any topic; %[1]s is the topic name.
var genericQuestions = []Question{
	{Text: "Which habit helps most when learning %[1]s?", Options: []string{"Writing small programs that use %[1]s", "Memorizing syntax without running code", "Ignoring compiler and runtime errors", "Copying solutions without reading them"}, Correct: 0, Explanation: "Practicing with small working programs builds understanding of %[1]s fastest."},
	{Text: "Code that uses %[1]s behaves unexpectedly. What is the best first step?", Options: []string{"Reproduce the problem with a minimal example", "Rewrite the whole program", "Delete the failing code", "Add random delays"}, Correct: 0, Explanation: "A minimal reproduction isolates the behavior of %[1]s from the rest of the program."},
	{Text: "What should a unit test for code using %[1]s check?", Options: []string{"The output for a known input", "That the source file is long", "That the code has comments", "How fast the editor opens"}, Correct: 0, Explanation: "Tests pin down observable behavior for known inputs."},
	{Text: "Where is the most reliable description of how %[1]s works?", Options: []string{"The official language documentation", "A random forum post", "The variable names in your code", "An unrelated library's README"}, Correct: 0, Explanation: "Official documentation is the authoritative reference for %[1]s."},
}

// BankQuestions returns n distinct questions for topic: curated ones whose
// keywords match the topic first, then generic ones. Generic questions are
// numbered once exhausted so texts stay unique. Correct options are rotated
// so the answer is not always first.
func BankQuestions(topic, difficulty string, n int) []Question {
	if n <= 0 {
		return nil
	}
	if difficulty == "" {
		difficulty = "Medium"
	}
	name := strings.TrimSpace(topic)
	if name == "" {
		name = "programming"
	}

	var out []Question
	lower := strings.ToLower(name)
	for _, e := range bank {
		if !matchesAny(lower, e.keywords) {
			continue
		}
		for _, q := range e.questions {
			if len(out) == n {
				break
			}
			out = append(out, q)
		}
	}

	for i := 0; len(out) < n; i++ {
		tmpl := genericQuestions[i%len(genericQuestions)]
		q := Question{
			Text:        fill(tmpl.Text, name),
			Correct:     tmpl.Correct,
			Explanation: fill(tmpl.Explanation, name),
		}
		for _, o := range tmpl.Options {
			q.Options = append(q.Options, fill(o, name))
		}
		if round := i / len(genericQuestions); round > 0 {
			q.Text = fmt.Sprintf("%s (variant %d)", q.Text, round+1)
		}
		out = append(out, q)
	}

	for i := range out {
		out[i].Topic = name
		out[i].Difficulty = difficulty
		out[i] = rotate(out[i], i%optionsPerQuestion)
	}
	return out
}

func fill(tmpl, topic string) string {
	return strings.ReplaceAll(tmpl, "%[1]s", topic)
}

func matchesAny(topic string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(topic, k) {
			return true
		}
	}
	return false
}

// rotate shifts the options by k places, tracking the correct index.
func rotate(q Question, k int) Question {
	n := len(q.Options)
	if n == 0 || k%n == 0 {
		return q
	}
	opts := make([]string, n)
	for i, o := range q.Options {
		opts[(i+k)%n] = o
	}
	q.Options = opts
	q.Correct = (q.Correct + k) % n
	return q
}
