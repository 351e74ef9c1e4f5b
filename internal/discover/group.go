package discover

import (
	"errors"
	"sort"

	"github.com/sghaida/autobind/internal/naming"
)

// GroupMarks validates the marks of pkgs and groups them by owner.
//
// Any mark on an invalid target, or with an unparsable directive, fails the
// whole pass: the returned error joins one *InvalidTargetError or
// *InvalidDirectiveError per offending mark, sorted by position, and no
// Result is produced. Duplicate fields and name collisions only drop the
// owners concerned; they are reported in Result.Failures.
func GroupMarks(pkgs []*Package) (*Result, error) {
	if err := validate(pkgs); err != nil {
		return nil, err
	}

	res := &Result{Packages: pkgs}
	for _, pkg := range pkgs {
		groups, failures := groupPackage(pkg)
		res.Groups = append(res.Groups, groups...)
		res.Failures = append(res.Failures, failures...)
	}

	sort.Slice(res.Groups, func(i, j int) bool { return res.Groups[i].Owner.Less(res.Groups[j].Owner) })
	sort.SliceStable(res.Failures, func(i, j int) bool {
		a, b := res.Failures[i], res.Failures[j]
		if a.Owner != b.Owner {
			return a.Owner.Less(b.Owner)
		}
		return a.Err.Error() < b.Err.Error()
	})
	return res, nil
}

func validate(pkgs []*Package) error {
	var bad []Mark
	for _, pkg := range pkgs {
		for _, m := range pkg.Marks {
			if m.Target != TargetField || m.Err != nil {
				bad = append(bad, m)
			}
		}
	}
	if len(bad) == 0 {
		return nil
	}

	sort.Slice(bad, func(i, j int) bool { return posLess(bad[i], bad[j]) })
	errs := make([]error, 0, len(bad))
	for _, m := range bad {
		if m.Target != TargetField {
			errs = append(errs, &InvalidTargetError{Target: m.Target, Decl: m.Decl, Pos: m.Pos})
			continue
		}
		errs = append(errs, &InvalidDirectiveError{Decl: m.Decl, Pos: m.Pos, Err: m.Err})
	}
	return errors.Join(errs...)
}

func posLess(a, b Mark) bool {
	if a.Pos.Filename != b.Pos.Filename {
		return a.Pos.Filename < b.Pos.Filename
	}
	if a.Pos.Line != b.Pos.Line {
		return a.Pos.Line < b.Pos.Line
	}
	if a.Pos.Column != b.Pos.Column {
		return a.Pos.Column < b.Pos.Column
	}
	return a.Decl < b.Decl
}

func groupPackage(pkg *Package) ([]*Group, []Failure) {
	marks := append([]Mark(nil), pkg.Marks...)
	sort.SliceStable(marks, func(i, j int) bool { return posLess(marks[i], marks[j]) })

	groups := map[string]*Group{}
	seen := map[string]map[string]Mark{}
	failed := map[string][]error{}

	for _, m := range marks {
		g, ok := groups[m.Owner]
		if !ok {
			g = &Group{
				Owner:   OwnerID{PkgPath: pkg.PkgPath, Name: m.Owner},
				Package: pkg.Name,
				Dir:     pkg.Dir,
				File:    m.file.Path,
				Imports: m.file.Imports,
				Decls:   pkg.Decls,
			}
			groups[m.Owner] = g
			seen[m.Owner] = map[string]Mark{}
		}

		if first, dup := seen[m.Owner][m.Field]; dup {
			failed[m.Owner] = append(failed[m.Owner], &DuplicateFieldError{
				Owner:  g.Owner,
				Field:  m.Field,
				First:  first.Pos,
				Second: m.Pos,
			})
			continue
		}
		seen[m.Owner][m.Field] = m

		g.Members = append(g.Members, Binding{
			Field:     m.Field,
			ID:        m.Directive.ID,
			Type:      m.Type,
			TypeExpr:  m.TypeExpr,
			Directive: m.Directive,
		})
	}

	for owner, errs := range collisions(pkg, groups) {
		failed[owner] = append(failed[owner], errs...)
	}

	var (
		out      []*Group
		failures []Failure
	)
	for owner, g := range groups {
		if errs := failed[owner]; len(errs) > 0 {
			for _, err := range errs {
				failures = append(failures, Failure{Owner: g.Owner, Dir: pkg.Dir, Err: err})
			}
			continue
		}
		sort.Slice(g.Members, func(i, j int) bool { return g.Members[i].Field < g.Members[j].Field })
		out = append(out, g)
	}
	return out, failures
}

// collisions checks the names the generator would declare for each owner
// against the package and against each other.
func collisions(pkg *Package, groups map[string]*Group) map[string][]error {
	out := map[string][]error{}
	producers := map[string][]string{}

	for owner, g := range groups {
		names := []string{naming.Helper(owner), naming.Constructor(owner), naming.RegisterFunc}
		for _, name := range names {
			if pos, ok := pkg.Decls[name]; ok {
				out[owner] = append(out[owner], &NameCollisionError{Owner: g.Owner, Name: name, Pos: pos})
			}
		}
		for _, name := range names[:2] {
			producers[name] = append(producers[name], owner)
		}
	}

	for name, owners := range producers {
		if len(owners) < 2 {
			continue
		}
		sort.Strings(owners)
		for i, owner := range owners {
			other := owners[(i+1)%len(owners)]
			out[owner] = append(out[owner], &NameCollisionError{
				Owner: groups[owner].Owner,
				Name:  name,
				With:  groups[other].Owner.String(),
			})
		}
	}
	return out
}
