package codegen

import (
	"fmt"
	"strings"
	"testing"

	"sigil/internal/contracts"
	"sigil/internal/diag"
	"sigil/internal/parser"
	"sigil/internal/sema"
	"sigil/internal/source"
	"sigil/internal/symbols"
)

func generate(t *testing.T, input string) string {
	t.Helper()
	fs := source.NewFileSetWithBase("")
	id := fs.AddVirtual("test.sgl", []byte(input))
	bag := diag.NewBag(0)
	rep := &diag.BagReporter{Bag: bag}
	mod := parser.ParseFile(fs.Get(id), parser.Options{Reporter: rep})
	table := symbols.Bind(mod, symbols.Options{Reporter: rep})
	res := sema.Check(mod, sema.Options{Reporter: rep, Symbols: table})
	con := contracts.Check(mod, contracts.Options{Reporter: rep, Symbols: table, Sema: res})
	if bag.HasErrors() {
		var msgs []string
		for _, d := range bag.Items() {
			msgs = append(msgs, fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message))
		}
		t.Fatalf("unexpected errors: %s", strings.Join(msgs, "; "))
	}
	return Generate(mod, Options{Symbols: table, Sema: res, Contracts: con})
}

// hasLines reports whether want appears as consecutive lines of out,
// ignoring indentation.
func hasLines(out string, want ...string) bool {
	lines := strings.Split(out, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	for i := 0; i+len(want) <= len(lines); i++ {
		match := true
		for j, w := range want {
			if lines[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func expectLines(t *testing.T, out string, want ...string) {
	t.Helper()
	if !hasLines(out, want...) {
		t.Fatalf("output lacks\n%s\n--- got\n%s", strings.Join(want, "\n"), out)
	}
}

const divideSource = `§M{m1:Calc}
§F{f1:Divide:pub} §I{i32:a} §I{i32:b} §O{i32}
  §Q (!= b 0) "b must not be zero"
  §S (>= result 0)
  §R (/ a b)
§/F{f1}
§/M{m1}`

func TestGenerateFunctionWithContracts(t *testing.T) {
	got := generate(t, divideSource)
	want := `// <auto-generated>Generated by sigil. Do not edit.</auto-generated>
#nullable enable

using System;
using System.Collections.Generic;
using System.Linq;
using System.Threading.Tasks;
using Sigil.Runtime;

namespace Calc
{
    public static class CalcModule
    {
        public static int Divide(int a, int b)
        {
            if (!(b != 0)) throw new ContractViolationException("Precondition failed: b must not be zero");
            {
                int __result = a / b;
                if (!(__result >= 0)) throw new ContractViolationException("Postcondition failed: result >= 0");
                return __result;
            }
        }
    }
}
`
	if got != want {
		t.Fatalf("output mismatch\n--- got\n%s--- want\n%s", got, want)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	src := `§M{m1:Shop}
§EN{e1:Size:pub} Small Large §/EN{e1}
§CL{c1:Cart:pub}
  §FLD{i32:count:priv} 0
  §FLD{str:owner:pub}
  §MT{mt1:Add:pub} §I{i32:n} §Q (> n 0) §AS{this.count} (+ this.count n) §/MT{mt1}
§/CL{c1}
` + "§F{f1:Main} §B{c} (new Cart) §C (c.Add 2) §/F{f1}\n§/M{m1}"
	first, second := generate(t, src), generate(t, src)
	if first != second {
		t.Fatalf("two runs differ\n--- first\n%s--- second\n%s", first, second)
	}
}

func TestGenerateLiterals(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"§B{a} FLOAT:1.0", "var a = 1.0;"},
		{"§B{a} FLOAT:1", "var a = 1.0;"},
		{"§B{a} DEC:18", "var a = 18m;"},
		{"§B{a} DEC:-42.5", "var a = -42.5m;"},
		{"§B{a} 1.5e3", "var a = 1.5e3;"},
		{"§B{a} 7", "var a = 7;"},
		{"§B{dec:a} 2.5", "decimal a = 2.5m;"},
		{"§B{dec:a} 3", "decimal a = 3m;"},
		{"§B{f32:a} 2", "float a = 2f;"},
		{"§B{i64:a} 5", "long a = 5;"},
		{`§B{a} "say \"hi\""`, `var a = "say \"hi\"";`},
	}
	for _, tt := range tests {
		t.Run(tt.bind, func(t *testing.T) {
			out := generate(t, "§M{m1:A} §F{f1:F} "+tt.bind+" §/F{f1} §/M{m1}")
			expectLines(t, out, tt.want)
		})
	}
}

func TestGenerateGlobalModule(t *testing.T) {
	out := generate(t, "§M{m1:global} §F{f1:Main} §P \"hi\" §/F{f1} §/M{m1}")
	if strings.Contains(out, "namespace") {
		t.Fatalf("global module must not open a namespace:\n%s", out)
	}
	expectLines(t, out,
		"public static class GlobalModule",
		"{",
		"public static void Main()",
		"{",
		`Console.WriteLine("hi");`,
	)
}

func TestGenerateClassModifiers(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"§CL{c1:Shape}", "public class Shape"},
		{"§CL{c1:Shape:int:abstract}", "internal abstract class Shape"},
		{"§CL{c1:Box:pub:sealed}", "public sealed class Box"},
		{"§CL{c1:Point:pub:struct readonly}", "public readonly struct Point"},
		{"§CL{c1:Point:pub:struct sealed}", "public struct Point"},
		{"§CL{c1:Util:static partial}", "public static partial class Util"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			out := generate(t, "§M{m1:A} "+tt.header+" §/CL{c1} §/M{m1}")
			expectLines(t, out, tt.want)
		})
	}
}

func TestGenerateClassMembers(t *testing.T) {
	out := generate(t, `§M{m1:Geo}
§CL{c1:Counter:pub}
  §FLD{i32:count:priv} 0
  §FLD{f64:rate:pub:readonly} 1
  §MT{mt1:Inc:pub} §AS{this.count} (+ this.count 1) §/MT{mt1}
  §MT{mt2:Get:pub} §O{i32} §R count §/MT{mt2}
§/CL{c1}
§/M{m1}`)
	expectLines(t, out,
		"public class Counter",
		"{",
		"private int count = 0;",
		"public readonly double rate = 1;",
		"",
		"public void Inc()",
		"{",
		"this.count = this.count + 1;",
		"}",
		"",
		"public int Get()",
		"{",
		"return count;",
		"}",
		"}",
	)
}

const accountInterface = `§IFC{i1:IAccount:pub}
  §MT{m1:Withdraw}
    §I{i32:amount}
    §O{i32}
    §Q (>= amount 0)
    §S (> result 0)
  §/MT{m1}
§/IFC{i1}`

func TestGenerateInheritedContracts(t *testing.T) {
	out := generate(t, "§M{m1:Bank}\n"+accountInterface+`
§CL{c1:Account:pub}
  §IMP{IAccount}
  §MT{mt1:Withdraw:pub}
    §I{i32:amt}
    §O{i32}
    §R (+ amt 1)
  §/MT{mt1}
§/CL{c1}
§/M{m1}`)
	expectLines(t, out,
		"public interface IAccount",
		"{",
		"// requires amount >= 0",
		"// ensures result > 0",
		"int Withdraw(int amount);",
		"}",
	)
	expectLines(t, out,
		"public class Account : IAccount",
		"{",
		"public int Withdraw(int amt)",
		"{",
		"// Preconditions inherited from IAccount.Withdraw",
		`if (!(amt >= 0)) throw new ContractViolationException("Precondition failed: amt >= 0");`,
		"{",
		"int __result = amt + 1;",
		"// Postconditions inherited from IAccount.Withdraw",
		`if (!(__result > 0)) throw new ContractViolationException("Postcondition failed: result > 0");`,
		"return __result;",
		"}",
	)
}

func TestGenerateOwnContractsSuppressInherited(t *testing.T) {
	out := generate(t, "§M{m1:Bank}\n"+accountInterface+`
§CL{c1:Account:pub}
  §IMP{IAccount}
  §MT{mt1:Withdraw:pub}
    §I{i32:amt}
    §O{i32}
    §Q (>= amt -10)
    §S (> result 0)
    §R (+ amt 11)
  §/MT{mt1}
§/CL{c1}
§/M{m1}`)
	if strings.Contains(out, "inherited from") {
		t.Fatalf("own contracts must replace inherited ones:\n%s", out)
	}
	expectLines(t, out, `if (!(amt >= -10)) throw new ContractViolationException("Precondition failed: amt >= -10");`)
}

func TestGenerateSignatures(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		want string
	}{
		{"iterator", "§F{f1:Gen} §O{i32} §L{l1:i} 1 3 §YI i §/L{l1} §YB §/F{f1}", "public static IEnumerable<int> Gen()"},
		{"async value", `§F{f1:Load:pub:async} §O{str} §R "" §/F{f1}`, "public static async Task<string> Load()"},
		{"async void", "§F{f1:Run:async} §/F{f1}", "public static async Task Run()"},
		{"private", "§F{f1:Helper:priv} §/F{f1}", "private static void Helper()"},
		{"param modes", "§F{f1:Split} §I{i32:a:ref} §I{i32:b:out} §I{str[]:rest:params} §/F{f1}",
			"public static void Split(ref int a, out int b, params string[] rest)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := generate(t, "§M{m1:A} "+tt.fn+" §/M{m1}")
			expectLines(t, out, tt.want)
		})
	}
}

func TestGenerateIteratorBody(t *testing.T) {
	out := generate(t, "§M{m1:A} §F{f1:Gen} §O{i32} §L{l1:i} 1 9 2 §YI i §/L{l1} §YB §/F{f1} §/M{m1}")
	expectLines(t, out,
		"for (var i = 1; i <= 9; i += 2)",
		"{",
		"yield return i;",
		"}",
		"yield break;",
	)
}

func TestGenerateEffectRemarks(t *testing.T) {
	out := generate(t, `§M{m1:A}
§F{f1:Copy} §E{fs:rw,io:w}
  §B{a} (File.ReadAllText "a")
  §C (File.WriteAllText "b" a)
  §P a
§/F{f1}
§/M{m1}`)
	expectLines(t, out,
		"/// <remarks>Effects: filesystem read/write, console write (fs:rw,io:w).</remarks>",
		"public static void Copy()",
	)
	expectLines(t, out, `File.WriteAllText("b", a);`)
}

func TestGenerateMatchStatement(t *testing.T) {
	out := generate(t, `§M{m1:A}
§F{f1:Name} §I{i32:n} §O{str}
  §W{w1} n
    §K 0 §R "zero"
    §K x when (> x 100) §R "big"
    §K _ §R "other"
  §/W{w1}
§/F{f1}
§/M{m1}`)
	expectLines(t, out,
		"switch (n)",
		"{",
		"case 0:",
		"{",
		`return "zero";`,
		"}",
		"case var x when x > 100:",
		"{",
		`return "big";`,
		"}",
		"default:",
		"{",
		`return "other";`,
		"}",
		"}",
	)
}

func TestGenerateMatchExpression(t *testing.T) {
	out := generate(t, "§M{m1:A} §F{f1:F} §B{n} 4 "+
		`§B{label} (match n [0 -> "zero"] [< 0 -> "neg"] [_ -> "pos"])`+
		" §/F{f1} §/M{m1}")
	expectLines(t, out, `var label = n switch { 0 => "zero", < 0 => "neg", _ => "pos" };`)
}

func TestGenerateStatements(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			"if chain",
			`§I{i32:x} §IF{c1} (> x 0) §P "pos" §EI (< x 0) §P "neg" §EL §P "zero" §/IF{c1}`,
			[]string{"if (x > 0)", "{", `Console.WriteLine("pos");`, "}", "else if (x < 0)", "{",
				`Console.WriteLine("neg");`, "}", "else", "{", `Console.WriteLine("zero");`, "}"},
		},
		{
			"while",
			`§B{~n} 0 §WH{w1} (< n 10) §AS{n} (+ n 1) §/WH{w1}`,
			[]string{"var n = 0;", "while (n < 10)", "{", "n = n + 1;", "}"},
		},
		{
			"foreach with index",
			`§FE{e1:idx:item} (array i32 [1 2]) §P item §/FE{e1}`,
			[]string{"foreach (var (idx, item) in new int[] { 1, 2 }.Select((item, idx) => (idx, item)))"},
		},
		{
			"try",
			`§TR{t1} §P 1 §CA{IOException:e} when (!= e.Message "") §RT §CA §P 2 §FI §P 3 §/TR{t1}`,
			[]string{"try", "{", "Console.WriteLine(1);", "}",
				`catch (IOException e) when (e.Message != "")`, "{", "throw;", "}",
				"catch", "{", "Console.WriteLine(2);", "}",
				"finally", "{", "Console.WriteLine(3);", "}"},
		},
		{
			"resource",
			`§I{str:path} §US{u1:reader} (new StreamReader path) §P (reader.ReadLine) §/US{u1}`,
			[]string{"using (var reader = new StreamReader(path))", "{", "Console.WriteLine(reader.ReadLine());", "}"},
		},
		{
			"throw",
			`§TH (new ArgumentException "x")`,
			[]string{`throw new ArgumentException("x");`},
		},
		{
			"empty array",
			`§B{a} (array i32 [])`,
			[]string{"var a = Array.Empty<int>();"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := generate(t, "§M{m1:A} §F{f1:F} "+tt.body+" §/F{f1} §/M{m1}")
			expectLines(t, out, tt.want...)
		})
	}
}

func TestGenerateOptionReturn(t *testing.T) {
	out := generate(t, `§M{m1:A}
§F{f1:Find} §I{i32:x} §O{Option<i32>}
  §IF{c1} (> x 0) §R (some x) §/IF{c1}
  §R none
§/F{f1}
§/M{m1}`)
	expectLines(t, out, "public static Option<int> Find(int x)")
	expectLines(t, out, "return Option<int>.Some(x);")
	expectLines(t, out, "return Option<int>.None;")
}

func TestGenerateEnumAndExtension(t *testing.T) {
	out := generate(t, `§M{m1:A}
§EN{e1:Color:pub:u8} Red, Green = 5 Blue §/EN{e1}
§EXT{x1:Color}
  §MT{m1:IsWarm:pub} §I{Color:c} §O{bool} §R (== c Color.Red) §/MT{m1}
§/EXT{x1}
§/M{m1}`)
	expectLines(t, out, "public enum Color : byte", "{", "Red,", "Green = 5,", "Blue", "}")
	expectLines(t, out,
		"public static class ColorExtensions",
		"{",
		"public static bool IsWarm(this Color c)",
		"{",
		"return c == Color.Red;",
		"}",
	)
}

func TestGenerateQualifiesModuleCalls(t *testing.T) {
	out := generate(t, `§M{m1:Calc}
§F{f1:Twice} §I{i32:a} §O{i32} §R (* a 2) §/F{f1}
§F{f2:Four} §O{i32} §R (Twice 2) §/F{f2}
§CL{c1:User:pub}
  §MT{mt1:Run:pub} §O{i32} §R (Twice 3) §/MT{mt1}
§/CL{c1}
§/M{m1}`)
	expectLines(t, out, "return Twice(2);")
	expectLines(t, out, "return CalcModule.Twice(3);")
}

func TestGenerateRawPassthrough(t *testing.T) {
	out := generate(t, "§M{m1:A} §F{f1:F} §RAW   Console.Beep();   §/RAW §/F{f1} §/M{m1}")
	expectLines(t, out, "public static void F()", "{", "Console.Beep();", "}")
}
